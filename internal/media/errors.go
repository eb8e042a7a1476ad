package media

import "fmt"

// OpenError reports that a source could not be opened or its required
// metadata read. Device distinguishes "not a camera device" from "file
// could not be opened"; the two used to be conflated and operators could
// not tell a missing file from a missing webcam.
type OpenError struct {
	Path   string
	Device bool
	Err    error
}

func (e *OpenError) Error() string {
	if e.Device {
		return fmt.Sprintf("could not open video device %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("could not open %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// UnknownTypeError reports a file whose content type is neither video nor
// image. Batch mode skips these; single-item mode treats them as fatal.
type UnknownTypeError struct {
	Path string
	MIME string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("file %s has an unknown content type %q", e.Path, e.MIME)
}

// WriteError reports a sink that could not be created or fed. Fatal to the
// item, never to the batch.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("could not write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
