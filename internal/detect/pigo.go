package detect

import (
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
	pigo "github.com/esimov/pigo/core"

	"github.com/andresmejia3/veil/internal/types"
)

// scoreCeil maps pigo's open-ended cascade quality score onto the 0-1
// confidence scale the Detector contract promises. Scores at or above the
// ceiling saturate at 1.0.
const scoreCeil = 50.0

// Config holds construction-time options for the pigo backend. InferWidth
// and InferHeight, when set, downscale frames to that resolution before
// inference; detection boxes are mapped back to frame coordinates.
type Config struct {
	CascadePath  string
	Backend      string // "auto" or "pigo"; forwarded opaquely by the core
	InferWidth   int
	InferHeight  int
	MinSize      int
	MaxSize      int
	ShiftFactor  float64
	ScaleFactor  float64
	IoUThreshold float64
	Angle        float64
}

// PigoDetector runs the esimov/pigo cascade classifier in-process.
type PigoDetector struct {
	classifier *pigo.Pigo
	cfg        Config
}

// New loads and unpacks the cascade file and validates the backend choice.
func New(cfg Config) (*PigoDetector, error) {
	switch cfg.Backend {
	case "", "auto", "pigo":
	default:
		return nil, fmt.Errorf("unsupported detector backend %q (must be auto or pigo)", cfg.Backend)
	}

	if cfg.MinSize == 0 {
		cfg.MinSize = 20
	}
	if cfg.MaxSize == 0 {
		cfg.MaxSize = 1000
	}
	if cfg.ShiftFactor == 0 {
		cfg.ShiftFactor = 0.1
	}
	if cfg.ScaleFactor == 0 {
		cfg.ScaleFactor = 1.1
	}
	if cfg.IoUThreshold == 0 {
		cfg.IoUThreshold = 0.2
	}

	cascade, err := os.ReadFile(cfg.CascadePath)
	if err != nil {
		return nil, fmt.Errorf("read cascade file %s: %w", cfg.CascadePath, err)
	}
	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("unpack cascade file %s: %w", cfg.CascadePath, err)
	}

	return &PigoDetector{classifier: classifier, cfg: cfg}, nil
}

// Detect runs the cascade over the frame and returns detections above
// threshold, in classifier output order, with boxes in frame coordinates.
func (d *PigoDetector) Detect(frame *image.RGBA, threshold float64) ([]types.Detection, error) {
	src := image.Image(frame)
	fw := frame.Bounds().Dx()
	fh := frame.Bounds().Dy()

	// Scale factors from inference space back to frame space.
	sx, sy := 1.0, 1.0
	if d.cfg.InferWidth > 0 && d.cfg.InferHeight > 0 && (d.cfg.InferWidth < fw || d.cfg.InferHeight < fh) {
		src = imaging.Resize(frame, d.cfg.InferWidth, d.cfg.InferHeight, imaging.Linear)
		sx = float64(fw) / float64(d.cfg.InferWidth)
		sy = float64(fh) / float64(d.cfg.InferHeight)
	}

	cols := src.Bounds().Dx()
	rows := src.Bounds().Dy()
	params := pigo.CascadeParams{
		MinSize:     d.cfg.MinSize,
		MaxSize:     d.cfg.MaxSize,
		ShiftFactor: d.cfg.ShiftFactor,
		ScaleFactor: d.cfg.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pigo.RgbToGrayscale(src),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	faces := d.classifier.RunCascade(params, d.cfg.Angle)
	faces = d.classifier.ClusterDetections(faces, d.cfg.IoUThreshold)

	var dets []types.Detection
	for _, face := range faces {
		conf := normalizeScore(float64(face.Q))
		if conf < threshold {
			continue
		}
		half := float64(face.Scale) / 2
		dets = append(dets, types.Detection{
			X1:    (float64(face.Col) - half) * sx,
			Y1:    (float64(face.Row) - half) * sy,
			X2:    (float64(face.Col) + half) * sx,
			Y2:    (float64(face.Row) + half) * sy,
			Score: conf,
		})
	}
	return dets, nil
}

func normalizeScore(q float64) float64 {
	if q <= 0 {
		return 0
	}
	if q >= scoreCeil {
		return 1
	}
	return q / scoreCeil
}
