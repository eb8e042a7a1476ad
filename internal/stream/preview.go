package stream

import (
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/andresmejia3/veil/internal/media"
	"github.com/andresmejia3/veil/internal/utils"
)

// ErrPreviewClosed signals that the operator closed the preview window (or
// pressed q in it). The stream loop treats this as a graceful early stop,
// not a failure.
var ErrPreviewClosed = errors.New("preview window closed")

// Preview renders frames to a live window. Show returns ErrPreviewClosed
// once the operator quits the window.
type Preview interface {
	Show(frame *image.RGBA) error
	Close() error
}

// ffplayPreview pipes raw RGBA frames into an ffplay window. When the
// operator quits ffplay (q key or window close), the pipe breaks and Show
// reports ErrPreviewClosed.
type ffplayPreview struct {
	cmd    *utils.SafeCommand
	stdin  io.WriteCloser
	closed bool
}

// NewPreview opens an ffplay window sized to the stream.
func NewPreview(meta media.Metadata) (Preview, error) {
	cmd := utils.NewSafeCommand("ffplay", "-hide_banner", "-loglevel", "error",
		"-window_title", "Anonymized",
		"-f", "rawvideo", "-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", meta.Width, meta.Height),
		"-i", "-")
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &ffplayPreview{cmd: cmd, stdin: stdin}, nil
}

func (p *ffplayPreview) Show(frame *image.RGBA) error {
	if _, err := p.stdin.Write(frame.Pix); err != nil {
		return ErrPreviewClosed
	}
	return nil
}

func (p *ffplayPreview) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	p.stdin.Close()
	_ = p.cmd.Process.Kill()
	_ = p.cmd.Wait()
	return nil
}
