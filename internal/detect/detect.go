// Package detect wraps face detection behind a small interface so the
// streaming pipeline never depends on a concrete model.
package detect

import (
	"image"

	"github.com/andresmejia3/veil/internal/types"
)

// Detector finds faces in a frame. Implementations discard candidates whose
// confidence falls below threshold (0-1) before returning; callers must not
// re-filter.
type Detector interface {
	Detect(frame *image.RGBA, threshold float64) ([]types.Detection, error)
}
