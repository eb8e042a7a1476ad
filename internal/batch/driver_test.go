package batch

import (
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/andresmejia3/veil/internal/media"
	"github.com/andresmejia3/veil/internal/stream"
	"github.com/andresmejia3/veil/internal/types"
)

func TestDeriveOutputPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"photo.jpg", "photo_anonymized.jpg"},
		{"/data/clips/video.mp4", "/data/clips/video_anonymized.mp4"},
		{"noext", "noext_anonymized"},
		{"dir.v1/clip.mkv", "dir.v1/clip_anonymized.mkv"},
	}
	for _, tt := range tests {
		if got := DeriveOutputPath(tt.in); got != tt.want {
			t.Errorf("DeriveOutputPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// fixedDetector returns no detections; batch tests exercise orchestration,
// not redaction.
type fixedDetector struct{}

func (fixedDetector) Detect(frame *image.RGBA, threshold float64) ([]types.Detection, error) {
	return nil, nil
}

// oneFrameSource serves a single frame so the driver tests never need
// ffmpeg.
type oneFrameSource struct {
	done bool
}

func (s *oneFrameSource) Kind() media.Kind     { return media.KindImage }
func (s *oneFrameSource) Meta() media.Metadata { return media.Metadata{Width: 8, Height: 8, FrameCount: 1} }
func (s *oneFrameSource) Close() error         { return nil }

func (s *oneFrameSource) Next(ctx context.Context) (*image.RGBA, error) {
	if s.done {
		return nil, io.EOF
	}
	s.done = true
	return image.NewRGBA(image.Rect(0, 0, 8, 8)), nil
}

type countingSink struct{ frames int }

func (s *countingSink) Append(frame *image.RGBA) error { s.frames++; return nil }
func (s *countingSink) Close() error                   { return nil }

func writePNG(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}
}

func TestRunMixedDirectory(t *testing.T) {
	dir := t.TempDir()

	writePNG(t, filepath.Join(dir, "good.png"))
	writePNG(t, filepath.Join(mustMkdir(t, dir, "nested"), "also_good.png"))
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not media"), 0644); err != nil {
		t.Fatal(err)
	}
	// Corrupt "video": mp4 extension but garbage content; classification
	// succeeds on extension, opening fails, item is skipped.
	if err := os.WriteFile(filepath.Join(dir, "broken.mp4"), []byte{0x00, 0x01}, 0644); err != nil {
		t.Fatal(err)
	}

	openErr := &media.OpenError{Path: "broken.mp4", Err: errors.New("bad container")}

	proc := stream.New(fixedDetector{})
	proc.OpenSource = func(ctx context.Context, job types.StreamJob) (media.Source, error) {
		if filepath.Base(job.Input) == "broken.mp4" {
			return nil, openErr
		}
		return &oneFrameSource{}, nil
	}
	proc.OpenSink = func(job types.StreamJob, src media.Source) (media.Sink, error) {
		return &countingSink{}, nil
	}

	var results []Result
	d := &Driver{
		Processor: proc,
		OnResult:  func(r Result) { results = append(results, r) },
	}
	if err := d.Run(context.Background(), dir, types.StreamJob{Mode: types.ModeBlur, MaskScale: 1.3, Threshold: 0.2}); err != nil {
		t.Fatalf("batch must not fail on per-item errors: %v", err)
	}

	var ok, skipped int
	for _, r := range results {
		if r.Skipped {
			skipped++
		} else {
			ok++
			if r.Output != DeriveOutputPath(r.Path) {
				t.Errorf("item %s output = %s", r.Path, r.Output)
			}
		}
	}
	if ok != 2 {
		t.Errorf("processed items = %d, want 2", ok)
	}
	if skipped != 2 {
		t.Errorf("skipped items = %d, want 2 (unknown type + broken video)", skipped)
	}
}

func mustMkdir(t *testing.T, parent, name string) string {
	t.Helper()
	dir := filepath.Join(parent, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestRunExtFilter(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "keep.png"))
	writePNG(t, filepath.Join(dir, "drop.jpg")) // real PNG bytes, but the filter is extension-based

	proc := stream.New(fixedDetector{})
	proc.OpenSource = func(ctx context.Context, job types.StreamJob) (media.Source, error) {
		return &oneFrameSource{}, nil
	}
	proc.OpenSink = func(job types.StreamJob, src media.Source) (media.Sink, error) {
		return &countingSink{}, nil
	}

	var seen []string
	d := &Driver{
		Processor: proc,
		ExtFilter: "png",
		OnResult:  func(r Result) { seen = append(seen, filepath.Base(r.Path)) },
	}
	if err := d.Run(context.Background(), dir, types.StreamJob{Mode: types.ModeNone, MaskScale: 1.0}); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 1 || seen[0] != "keep.png" {
		t.Errorf("filtered items = %v, want [keep.png]", seen)
	}
}

func TestRunSkipsPriorOutputs(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "photo.png"))
	writePNG(t, filepath.Join(dir, "photo_anonymized.png"))

	proc := stream.New(fixedDetector{})
	proc.OpenSource = func(ctx context.Context, job types.StreamJob) (media.Source, error) {
		return &oneFrameSource{}, nil
	}
	proc.OpenSink = func(job types.StreamJob, src media.Source) (media.Sink, error) {
		return &countingSink{}, nil
	}

	var seen []string
	d := &Driver{Processor: proc, OnResult: func(r Result) { seen = append(seen, filepath.Base(r.Path)) }}
	if err := d.Run(context.Background(), dir, types.StreamJob{Mode: types.ModeNone, MaskScale: 1.0}); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 1 || seen[0] != "photo.png" {
		t.Errorf("items = %v, want [photo.png]", seen)
	}
}
