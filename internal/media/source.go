// Package media owns frame I/O: classifying inputs, probing metadata, and
// the closed set of frame sources (single image, video file, live camera)
// plus their matching sinks. Video paths shell out to ffmpeg and exchange
// raw RGBA frames over pipes.
package media

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/andresmejia3/veil/internal/utils"
)

// Source yields a lazy sequence of frames. Next returns io.EOF when the
// stream ends; live cameras never do on their own. Close releases the
// underlying reader and is safe to call exactly once on every exit path.
type Source interface {
	Kind() Kind
	Meta() Metadata
	Next(ctx context.Context) (*image.RGBA, error)
	Close() error
}

// IsCameraSpec reports whether an input names a capture device rather than
// a file, using the "<videoN>" convention.
func IsCameraSpec(input string) bool {
	return strings.HasPrefix(input, "<video") && strings.HasSuffix(input, ">")
}

// OpenImage decodes a still image as a one-frame source.
func OpenImage(path string) (Source, error) {
	src, err := imaging.Open(path)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}

	frame := image.NewRGBA(image.Rect(0, 0, src.Bounds().Dx(), src.Bounds().Dy()))
	draw.Draw(frame, frame.Bounds(), src, src.Bounds().Min, draw.Src)

	return &imageSource{
		frame: frame,
		meta:  Metadata{Width: frame.Bounds().Dx(), Height: frame.Bounds().Dy(), FrameCount: 1},
	}, nil
}

// OpenVideo probes a video file and starts an ffmpeg rawvideo decode pipe.
// A missing file is reported as such instead of being folded into a probe
// failure.
func OpenVideo(ctx context.Context, path string) (Source, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}

	meta, err := Probe(ctx, path)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	if meta.FrameCount <= 0 {
		meta.FrameCount = CountFrames(ctx, path)
	}

	cmd := utils.NewSafeCommand("ffmpeg", "-hide_banner", "-loglevel", "error",
		"-i", path, "-f", "rawvideo", "-pix_fmt", "rgba", "-")
	return startRawSource(cmd, meta, KindVideo, path, false)
}

// OpenCamera starts a live capture from a "<videoN>" device spec. The frame
// count is unknown (-1) and the stream runs until cancelled.
func OpenCamera(ctx context.Context, spec string, width, height int) (Source, error) {
	idx, err := cameraIndex(spec)
	if err != nil {
		return nil, &OpenError{Path: spec, Device: true, Err: err}
	}
	if width <= 0 || height <= 0 {
		width, height = 640, 480
	}

	var args []string
	size := fmt.Sprintf("%dx%d", width, height)
	switch runtime.GOOS {
	case "darwin":
		args = []string{"-f", "avfoundation", "-video_size", size, "-i", strconv.Itoa(idx)}
	default:
		device := fmt.Sprintf("/dev/video%d", idx)
		if _, err := os.Stat(device); err != nil {
			return nil, &OpenError{Path: spec, Device: true, Err: err}
		}
		args = []string{"-f", "v4l2", "-video_size", size, "-i", device}
	}
	args = append([]string{"-hide_banner", "-loglevel", "error"}, args...)
	args = append(args, "-f", "rawvideo", "-pix_fmt", "rgba", "-")

	meta := Metadata{Width: width, Height: height, FPS: 30, FrameCount: -1}
	cmd := utils.NewSafeCommand("ffmpeg", args...)
	return startRawSource(cmd, meta, KindCamera, spec, true)
}

func cameraIndex(spec string) (int, error) {
	if !IsCameraSpec(spec) {
		return 0, fmt.Errorf("not a camera spec: %q", spec)
	}
	idx, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(spec, "<video"), ">"))
	if err != nil {
		return 0, fmt.Errorf("invalid camera spec %q: %w", spec, err)
	}
	return idx, nil
}

// imageSource yields its decoded frame once, then io.EOF.
type imageSource struct {
	frame *image.RGBA
	meta  Metadata
	done  bool
}

func (s *imageSource) Kind() Kind     { return KindImage }
func (s *imageSource) Meta() Metadata { return s.meta }
func (s *imageSource) Close() error   { return nil }

func (s *imageSource) Next(ctx context.Context) (*image.RGBA, error) {
	if s.done {
		return nil, io.EOF
	}
	s.done = true
	return s.frame, nil
}

// rawSource reads fixed-size RGBA frames from an ffmpeg stdout pipe. The
// frame buffer is recycled between reads; it belongs to the caller only
// until the next call to Next.
type rawSource struct {
	cmd    *utils.SafeCommand
	stdout io.ReadCloser
	meta   Metadata
	kind   Kind
	frame  *image.RGBA
	closed bool
}

func startRawSource(cmd *utils.SafeCommand, meta Metadata, kind Kind, path string, device bool) (Source, error) {
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &OpenError{Path: path, Device: device, Err: err}
	}
	if err := cmd.Start(); err != nil {
		return nil, &OpenError{Path: path, Device: device, Err: err}
	}
	return &rawSource{
		cmd:    cmd,
		stdout: stdout,
		meta:   meta,
		kind:   kind,
		frame:  image.NewRGBA(image.Rect(0, 0, meta.Width, meta.Height)),
	}, nil
}

func (s *rawSource) Kind() Kind     { return s.kind }
func (s *rawSource) Meta() Metadata { return s.meta }

func (s *rawSource) Next(ctx context.Context) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(s.stdout, s.frame.Pix); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read frame: %w", err)
	}
	return s.frame, nil
}

func (s *rawSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.stdout.Close()
	// The decoder is expected to be mid-stream on early exits; reap the
	// process without treating its exit status as an error.
	_ = s.cmd.Process.Kill()
	_ = s.cmd.Wait()
	return nil
}
