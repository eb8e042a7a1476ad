package anonymize

import "math"

// ScaleBox expands (or shrinks) a bounding box symmetrically about its own
// center: each side moves outward by (m-1) times the box height/width, so
// m=1.0 is the identity and m=1.3 grows the box by 30% of its size on every
// side. Coordinates are rounded to the nearest integer. The result is NOT
// clamped to any frame bounds; callers clip. m<1 shrinks the box and m<=0
// may produce an inverted region, which downstream code tolerates as empty.
func ScaleBox(x1, y1, x2, y2, m float64) (int, int, int, int) {
	s := m - 1.0
	h := y2 - y1
	w := x2 - x1
	return round(x1 - w*s), round(y1 - h*s), round(x2 + w*s), round(y2 + h*s)
}

func round(v float64) int {
	return int(math.Round(v))
}
