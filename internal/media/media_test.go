package media

import (
	"context"
	"errors"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestParseFrameRate(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"30/1", 30, false},
		{"30000/1001", 29.97002997, false},
		{"25", 25, false},
		{"0/0", 0, true},
		{"garbage", 0, true},
		{"-30/1", 0, true},
	}
	for _, tt := range tests {
		got, err := parseFrameRate(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseFrameRate(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && math.Abs(got-tt.want) > 1e-6 {
			t.Errorf("parseFrameRate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestClassify(t *testing.T) {
	dir := t.TempDir()

	// A real PNG so sniffing agrees with the extension.
	pngPath := filepath.Join(dir, "photo.png")
	f, err := os.Create(pngPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}
	f.Close()

	txtPath := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(txtPath, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	// PNG content behind an unknown extension: sniffing must still find it.
	sniffPath := filepath.Join(dir, "photo.dat")
	data, _ := os.ReadFile(pngPath)
	if err := os.WriteFile(sniffPath, data, 0644); err != nil {
		t.Fatal(err)
	}

	// Minimal ftyp box so content sniffing identifies MP4 even when the
	// host has no extension table for .mp4.
	mp4Path := filepath.Join(dir, "clip.mp4")
	mp4Header := []byte{
		0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p',
		'm', 'p', '4', '2', 0x00, 0x00, 0x00, 0x00,
		'm', 'p', '4', '2', 'i', 's', 'o', 'm',
	}
	if err := os.WriteFile(mp4Path, mp4Header, 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path    string
		want    Kind
		wantErr bool
	}{
		{pngPath, KindImage, false},
		{mp4Path, KindVideo, false},
		{txtPath, KindUnknown, true},
		{sniffPath, KindImage, false},
	}
	for _, tt := range tests {
		got, err := Classify(tt.path)
		if got != tt.want {
			t.Errorf("Classify(%s) = %v, want %v", filepath.Base(tt.path), got, tt.want)
		}
		if (err != nil) != tt.wantErr {
			t.Errorf("Classify(%s) error = %v, wantErr %v", filepath.Base(tt.path), err, tt.wantErr)
		}
		if tt.wantErr {
			var ute *UnknownTypeError
			if !errors.As(err, &ute) {
				t.Errorf("Classify(%s) error type = %T, want *UnknownTypeError", filepath.Base(tt.path), err)
			}
		}
	}
}

func TestIsCameraSpec(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"<video0>", true},
		{"<video12>", true},
		{"video0", false},
		{"/data/clip.mp4", false},
	}
	for _, tt := range tests {
		if got := IsCameraSpec(tt.in); got != tt.want {
			t.Errorf("IsCameraSpec(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCameraIndex(t *testing.T) {
	idx, err := cameraIndex("<video2>")
	if err != nil || idx != 2 {
		t.Errorf("cameraIndex(<video2>) = %d, %v; want 2, nil", idx, err)
	}
	if _, err := cameraIndex("<videoX>"); err == nil {
		t.Error("expected error for non-numeric camera index")
	}
}

func TestOpenImageRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.png")
	src := image.NewRGBA(image.Rect(0, 0, 8, 6))
	f, _ := os.Create(path)
	if err := png.Encode(f, src); err != nil {
		t.Fatal(err)
	}
	f.Close()

	s, err := OpenImage(path)
	if err != nil {
		t.Fatalf("OpenImage: %v", err)
	}
	defer s.Close()

	if s.Kind() != KindImage {
		t.Errorf("Kind = %v, want image", s.Kind())
	}
	if meta := s.Meta(); meta.Width != 8 || meta.Height != 6 || meta.FrameCount != 1 {
		t.Errorf("Meta = %+v", meta)
	}

	frame, err := s.Next(context.Background())
	if err != nil || frame == nil {
		t.Fatalf("Next: %v", err)
	}
	if _, err := s.Next(context.Background()); err == nil {
		t.Error("second Next should return io.EOF")
	}
}

func TestOpenImageMissingFile(t *testing.T) {
	_, err := OpenImage("/nonexistent/photo.jpg")
	var oe *OpenError
	if !errors.As(err, &oe) {
		t.Fatalf("error type = %T, want *OpenError", err)
	}
	if oe.Device {
		t.Error("file open failure must not be flagged as a device failure")
	}
}

func TestImageSink(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.png")

	sink, err := OpenImageSink(path)
	if err != nil {
		t.Fatal(err)
	}
	frame := image.NewRGBA(image.Rect(0, 0, 4, 4))
	if err := sink.Append(frame); err != nil {
		t.Fatal(err)
	}
	if err := sink.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("output image not written: %v", err)
	}
}
