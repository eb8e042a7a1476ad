// Package anonymize converts detector output into pixel-space edits: it
// scales each detection box, clips it to the frame, and overwrites the
// region with the configured redaction.
package anonymize

import (
	"image"

	"github.com/andresmejia3/veil/internal/types"
)

// Frame applies the redaction pipeline to every detection, in detector
// order, mutating img in place. Threshold filtering has already happened in
// the detector; nothing is re-filtered here. With ModeNone and annotation
// disabled this is the identity on the frame.
func Frame(img *image.RGBA, dets []types.Detection, maskScale float64, opts Options) {
	bounds := img.Bounds()
	for i, det := range dets {
		x1, y1, x2, y2 := ScaleBox(det.X1, det.Y1, det.X2, det.Y2, maskScale)

		// Clip to the valid frame region. The max edge is exclusive in
		// image.Rectangle, so clamping to dim-1 matches the contract that
		// coordinates stay strictly inside the frame.
		x1 = clamp(x1, 0, bounds.Dx()-1)
		x2 = clamp(x2, 0, bounds.Dx()-1)
		y1 = clamp(y1, 0, bounds.Dy()-1)
		y2 = clamp(y2, 0, bounds.Dy()-1)

		// Built literally rather than with image.Rect so an inverted box
		// (possible when maskScale <= 0) stays empty instead of being
		// canonicalized into a real region.
		region := image.Rectangle{Min: image.Pt(x1, y1), Max: image.Pt(x2, y2)}
		Redact(img, region, i, det.Score, opts)
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
