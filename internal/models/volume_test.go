package models

import "testing"

func TestParseAxis(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want Axis
	}{
		{"x", AxisX}, {"Y", AxisY}, {"z", AxisZ},
	} {
		got, err := ParseAxis(tc.in)
		if err != nil {
			t.Fatalf("ParseAxis(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("ParseAxis(%q) = %v, want %v", tc.in, got, tc.want)
		}
		if got.String() != map[Axis]string{AxisX: "x", AxisY: "y", AxisZ: "z"}[tc.want] {
			t.Errorf("unexpected String() %q", got.String())
		}
	}

	if _, err := ParseAxis("w"); err == nil {
		t.Error("Expected error for invalid axis, got nil")
	}
}

func TestVolumeAt(t *testing.T) {
	v := &Volume{Data: make([]float64, 2*3*4), Width: 2, Height: 3, Depth: 4}
	v.Data[v.Index(1, 2, 3)] = 0.75

	if got := v.At(1, 2, 3); got != 0.75 {
		t.Errorf("At(1,2,3) = %f, want 0.75", got)
	}
	if got := v.Index(1, 2, 3); got != 3*6+2*2+1 {
		t.Errorf("Index(1,2,3) = %d", got)
	}
	if got := v.At(2, 0, 0); got != 0 {
		t.Errorf("At outside volume = %f, want 0", got)
	}
}
