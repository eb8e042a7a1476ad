package types

import "fmt"

// Detection is one face candidate reported by the detector: a bounding box
// in pixel space (x1,y1 top-left, x2,y2 bottom-right) and a confidence
// score in [0, 1]. Detections are produced per frame and consumed
// immediately, never persisted.
type Detection struct {
	X1, Y1, X2, Y2 float64
	Score          float64
}

// Mode selects the visual treatment applied to a detected region.
type Mode string

const (
	ModeSolid Mode = "solid"
	ModeBlur  Mode = "blur"
	ModeNone  Mode = "none"
)

// ParseMode validates a user-supplied redaction mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeSolid, ModeBlur, ModeNone:
		return Mode(s), nil
	}
	return "", fmt.Errorf("invalid redaction mode %q (must be one of: solid, blur, none)", s)
}

// StreamJob is the configuration for one input item. It is built once per
// item by the batch driver or the command entry point and never mutated
// for the job's duration.
type StreamJob struct {
	Input     string // file path or camera spec like "<video0>"
	Output    string // empty means no output sink
	Camera    bool   // Input names a live capture device
	Threshold float64
	Mode      Mode
	MaskScale float64
	Ellipse   bool // blend blur inside the inscribed ellipse instead of the full box
	Annotate  bool // draw "N: score" labels onto redacted regions
	Preview   bool // show a live preview window while streaming
	Nested    bool // render the per-frame bar as a non-persistent sub-bar
}
