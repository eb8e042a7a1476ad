package anonymize

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/andresmejia3/veil/internal/types"
)

// blurFactor is the number of pixels per dimension a face region is reduced
// to before being upsampled back, which is what makes the blur irreversible.
const blurFactor = 2

var (
	overlayColor = color.RGBA{0, 0, 0, 255}       // solid fill
	labelColor   = color.RGBA{128, 255, 128, 255} // annotation text
)

// Options controls how a region is overwritten.
type Options struct {
	Mode     types.Mode
	Ellipse  bool
	Annotate bool
}

// Redact mutates img in place within region only, applying the configured
// redaction mode. idx is the detection's position in the detector output
// (0-based; labels are printed 1-based) and score its confidence, both used
// only for annotation. region must already be clipped to the frame bounds.
// A zero-area region is a no-op in every mode.
func Redact(img *image.RGBA, region image.Rectangle, idx int, score float64, opts Options) {
	if region.Empty() {
		return
	}

	switch opts.Mode {
	case types.ModeSolid:
		draw.Draw(img, region, &image.Uniform{overlayColor}, image.Point{}, draw.Src)

	case types.ModeBlur:
		blurred := blurRegion(img, region)
		if opts.Ellipse {
			// Only pixels inside the inscribed ellipse take the blurred
			// content; the rectangle's corners keep the original image.
			draw.DrawMask(img, region, blurred, image.Point{}, ellipseMask(region.Dx(), region.Dy()), image.Point{}, draw.Over)
		} else {
			draw.Draw(img, region, blurred, image.Point{}, draw.Src)
		}

	case types.ModeNone:
		// Pass-through, used to validate detection without redacting.
	}

	if opts.Annotate {
		annotate(img, region, idx, score)
	}
}

// blurRegion downsamples the region to blurFactor pixels per dimension and
// scales it back up, yielding a heavy pixelation-style blur.
func blurRegion(img *image.RGBA, region image.Rectangle) image.Image {
	sub := img.SubImage(region)
	down := imaging.Resize(sub, blurFactor, blurFactor, imaging.Box)
	return imaging.Resize(down, region.Dx(), region.Dy(), imaging.Linear)
}

// ellipseMask returns an alpha mask of the ellipse inscribed in a w x h
// rectangle.
func ellipseMask(w, h int) *image.Alpha {
	dc := gg.NewContext(w, h)
	dc.DrawEllipse(float64(w)/2, float64(h)/2, float64(w)/2, float64(h)/2)
	dc.Fill()
	return dc.AsMask()
}

func annotate(img *image.RGBA, region image.Rectangle, idx int, score float64) {
	dc := gg.NewContextForRGBA(img)
	dc.SetFontFace(basicfont.Face7x13)
	dc.SetColor(labelColor)
	label := fmt.Sprintf("%d: %.2f", idx+1, score)
	dc.DrawString(label, float64(region.Min.X), float64(region.Min.Y)-4)
}
