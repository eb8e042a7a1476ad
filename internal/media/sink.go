package media

import (
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"

	"github.com/andresmejia3/veil/internal/utils"
)

// Sink accepts anonymized frames. Append may block on encoder buffering.
// Close flushes and releases the sink and must be called exactly once.
type Sink interface {
	Append(frame *image.RGBA) error
	Close() error
}

// OpenVideoSink starts an ffmpeg libx264 encoder fed raw RGBA frames at the
// source frame rate.
func OpenVideoSink(path string, meta Metadata) (Sink, error) {
	fps := meta.FPS
	if fps <= 0 {
		fps = 30
	}
	cmd := utils.NewSafeCommand("ffmpeg", "-hide_banner", "-loglevel", "error", "-y",
		"-f", "rawvideo", "-pix_fmt", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", meta.Width, meta.Height),
		"-framerate", fmt.Sprintf("%g", fps),
		"-i", "-",
		"-c:v", "libx264", "-pix_fmt", "yuv420p", path)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &WriteError{Path: path, Err: err}
	}
	if err := cmd.Start(); err != nil {
		return nil, &WriteError{Path: path, Err: err}
	}
	return &videoSink{cmd: cmd, stdin: stdin, path: path}, nil
}

type videoSink struct {
	cmd    *utils.SafeCommand
	stdin  io.WriteCloser
	path   string
	closed bool
}

func (s *videoSink) Append(frame *image.RGBA) error {
	if _, err := s.stdin.Write(frame.Pix); err != nil {
		return &WriteError{Path: s.path, Err: err}
	}
	return nil
}

func (s *videoSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.stdin.Close()
	if err := s.cmd.Wait(); err != nil {
		utils.ShowError("Encoder process failed", err, s.cmd)
		return &WriteError{Path: s.path, Err: err}
	}
	return nil
}

// OpenImageSink writes a single frame to an image file; the format follows
// the output extension.
func OpenImageSink(path string) (Sink, error) {
	return &imageSink{path: path}, nil
}

type imageSink struct {
	path  string
	frame *image.RGBA
}

func (s *imageSink) Append(frame *image.RGBA) error {
	s.frame = frame
	return nil
}

func (s *imageSink) Close() error {
	if s.frame == nil {
		return nil
	}
	if err := imaging.Save(s.frame, s.path); err != nil {
		return &WriteError{Path: s.path, Err: err}
	}
	return nil
}
