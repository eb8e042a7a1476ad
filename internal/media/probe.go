package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Metadata describes an opened frame source. FrameCount is -1 when the
// total is unknown (live cameras, broken container metadata).
type Metadata struct {
	Width      int
	Height     int
	FPS        float64
	FrameCount int
}

type ffprobeOutput struct {
	Streams []struct {
		Width         int    `json:"width"`
		Height        int    `json:"height"`
		RFrameRate    string `json:"r_frame_rate"`
		NbFrames      string `json:"nb_frames"`
		NbReadPackets string `json:"nb_read_packets"`
	} `json:"streams"`
}

// Probe reads stream metadata for a video file with ffprobe. The frame
// count uses the fast container-metadata path only; callers wanting an
// exact count on metadata-less containers use CountFrames.
func Probe(ctx context.Context, path string) (Metadata, error) {
	cmd := exec.CommandContext(ctx, "ffprobe", "-v", "error", "-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate,nb_frames", "-of", "json", path)
	out, err := cmd.Output()
	if err != nil {
		return Metadata{}, fmt.Errorf("ffprobe failed: %w", err)
	}

	var res ffprobeOutput
	if err := json.Unmarshal(out, &res); err != nil {
		return Metadata{}, fmt.Errorf("ffprobe JSON parse error: %w", err)
	}
	if len(res.Streams) == 0 {
		return Metadata{}, fmt.Errorf("no video stream in %s", path)
	}

	s := res.Streams[0]
	if s.Width <= 0 || s.Height <= 0 {
		return Metadata{}, fmt.Errorf("missing video dimensions in %s", path)
	}
	fps, err := parseFrameRate(s.RFrameRate)
	if err != nil {
		return Metadata{}, err
	}

	meta := Metadata{Width: s.Width, Height: s.Height, FPS: fps, FrameCount: -1}
	if count, err := strconv.Atoi(s.NbFrames); err == nil && count > 0 {
		meta.FrameCount = count
	}
	return meta, nil
}

// CountFrames counts packets with ffprobe when container metadata carries
// no frame count. Slow on long files; returns -1 on failure so the caller
// falls back to a spinner.
func CountFrames(ctx context.Context, path string) int {
	cmd := exec.CommandContext(ctx, "ffprobe", "-v", "error", "-select_streams", "v:0",
		"-count_packets", "-show_entries", "stream=nb_read_packets", "-of", "json", path)
	out, err := cmd.Output()
	if err != nil {
		return -1
	}

	var res ffprobeOutput
	if err := json.Unmarshal(out, &res); err != nil || len(res.Streams) == 0 {
		return -1
	}
	count, err := strconv.Atoi(res.Streams[0].NbReadPackets)
	if err != nil || count <= 0 {
		return -1
	}
	return count
}

// parseFrameRate converts ffprobe's rational rate ("30000/1001") to a float.
func parseFrameRate(r string) (float64, error) {
	num, den, found := strings.Cut(r, "/")
	if !found {
		v, err := strconv.ParseFloat(r, 64)
		if err != nil || v <= 0 {
			return 0, fmt.Errorf("invalid frame rate %q", r)
		}
		return v, nil
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 || n <= 0 {
		return 0, fmt.Errorf("invalid frame rate %q", r)
	}
	return n / d, nil
}
