package media

import (
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Kind is the content class of an input item.
type Kind int

const (
	KindUnknown Kind = iota
	KindImage
	KindVideo
	KindCamera
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	case KindCamera:
		return "camera"
	}
	return "unknown"
}

// Classify decides whether a file is a video or an image, first by
// extension MIME lookup, then by sniffing the leading bytes. Files that
// are neither produce an *UnknownTypeError.
func Classify(path string) (Kind, error) {
	mt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mt == "" {
		mt = sniffType(path)
	}

	switch {
	case strings.HasPrefix(mt, "video/"):
		return KindVideo, nil
	case strings.HasPrefix(mt, "image/"):
		return KindImage, nil
	}
	return KindUnknown, &UnknownTypeError{Path: path, MIME: mt}
}

func sniffType(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return ""
	}
	return http.DetectContentType(buf[:n])
}
