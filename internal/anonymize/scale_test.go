package anonymize

import "testing"

func TestScaleBoxIdentity(t *testing.T) {
	boxes := [][4]float64{
		{0, 0, 10, 10},
		{5, 7, 20, 31},
		{100, 50, 101, 51},
		{3, 3, 3, 3}, // degenerate
	}
	for _, b := range boxes {
		x1, y1, x2, y2 := ScaleBox(b[0], b[1], b[2], b[3], 1.0)
		if x1 != int(b[0]) || y1 != int(b[1]) || x2 != int(b[2]) || y2 != int(b[3]) {
			t.Errorf("ScaleBox(%v, 1.0) = (%d,%d,%d,%d), want identity", b, x1, y1, x2, y2)
		}
	}
}

func TestScaleBoxGrows(t *testing.T) {
	tests := []struct {
		name string
		box  [4]float64
		m    float64
	}{
		{"square box", [4]float64{10, 10, 30, 30}, 1.3},
		{"wide box", [4]float64{0, 0, 100, 20}, 1.5},
		{"tall box", [4]float64{40, 5, 50, 95}, 2.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x1, y1, x2, y2 := ScaleBox(tt.box[0], tt.box[1], tt.box[2], tt.box[3], tt.m)

			// The scaled box must strictly contain the original.
			if float64(x1) >= tt.box[0] || float64(y1) >= tt.box[1] ||
				float64(x2) <= tt.box[2] || float64(y2) <= tt.box[3] {
				t.Fatalf("scaled box (%d,%d,%d,%d) does not contain %v", x1, y1, x2, y2, tt.box)
			}

			// Each dimension grows by 2*size*(m-1), within rounding.
			wantW := (tt.box[2] - tt.box[0]) * (1 + 2*(tt.m-1))
			wantH := (tt.box[3] - tt.box[1]) * (1 + 2*(tt.m-1))
			if gotW := float64(x2 - x1); gotW < wantW-1 || gotW > wantW+1 {
				t.Errorf("width = %v, want %v (+-1)", gotW, wantW)
			}
			if gotH := float64(y2 - y1); gotH < wantH-1 || gotH > wantH+1 {
				t.Errorf("height = %v, want %v (+-1)", gotH, wantH)
			}
		})
	}
}

func TestScaleBoxShrinks(t *testing.T) {
	x1, y1, x2, y2 := ScaleBox(10, 10, 30, 30, 0.8)
	if x1 <= 10 || y1 <= 10 || x2 >= 30 || y2 >= 30 {
		t.Errorf("m=0.8 should shrink the box, got (%d,%d,%d,%d)", x1, y1, x2, y2)
	}

	// Pathological factors must not panic; an inverted result is legal and
	// is treated as empty downstream.
	ScaleBox(10, 10, 30, 30, -1.0)
	ScaleBox(10, 10, 30, 30, 0)
}
