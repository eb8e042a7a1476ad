// Package stream drives one input item end-to-end: open a frame source,
// pull frames, detect, anonymize, write, preview, and release everything on
// every exit path.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/andresmejia3/veil/internal/anonymize"
	"github.com/andresmejia3/veil/internal/detect"
	"github.com/andresmejia3/veil/internal/media"
	"github.com/andresmejia3/veil/internal/types"
)

// Stats summarizes one processed item.
type Stats struct {
	Frames     int
	Detections int
}

// Processor runs stream jobs. The open functions exist so tests can inject
// fake sources, sinks, and previews; zero values fall back to the real
// media implementations.
type Processor struct {
	Detector   detect.Detector
	OpenSource func(ctx context.Context, job types.StreamJob) (media.Source, error)
	OpenSink   func(job types.StreamJob, src media.Source) (media.Sink, error)
	NewPreview func(meta media.Metadata) (Preview, error)
}

// New returns a Processor wired to the real media layer.
func New(det detect.Detector) *Processor {
	return &Processor{Detector: det}
}

func (p *Processor) openSource(ctx context.Context, job types.StreamJob) (media.Source, error) {
	if p.OpenSource != nil {
		return p.OpenSource(ctx, job)
	}
	if job.Camera {
		return media.OpenCamera(ctx, job.Input, 0, 0)
	}
	kind, err := media.Classify(job.Input)
	if err != nil {
		return nil, err
	}
	if kind == media.KindImage {
		return media.OpenImage(job.Input)
	}
	return media.OpenVideo(ctx, job.Input)
}

func (p *Processor) openSink(job types.StreamJob, src media.Source) (media.Sink, error) {
	if p.OpenSink != nil {
		return p.OpenSink(job, src)
	}
	if src.Kind() == media.KindImage {
		return media.OpenImageSink(job.Output)
	}
	return media.OpenVideoSink(job.Output, src.Meta())
}

func (p *Processor) newPreview(meta media.Metadata) (Preview, error) {
	if p.NewPreview != nil {
		return p.NewPreview(meta)
	}
	return NewPreview(meta)
}

// Run processes one item: OPENING, then the READ -> DETECT -> ANONYMIZE ->
// WRITE -> PREVIEW loop, then CLOSING. Source, sink, preview, and progress
// handles are released on every exit path, including context cancellation
// and operator quit; the output file keeps whatever frames were written
// before an early stop.
func (p *Processor) Run(ctx context.Context, job types.StreamJob) (Stats, error) {
	var stats Stats

	src, err := p.openSource(ctx, job)
	if err != nil {
		return stats, err
	}
	defer src.Close()

	var sink media.Sink
	if job.Output != "" {
		sink, err = p.openSink(job, src)
		if err != nil {
			return stats, err
		}
	}
	// CLOSING must run even on early termination or mid-stream error.
	defer func() {
		if sink != nil {
			sink.Close()
		}
	}()

	var preview Preview
	if job.Preview && src.Kind() != media.KindImage {
		preview, err = p.newPreview(src.Meta())
		if err != nil {
			return stats, fmt.Errorf("open preview: %w", err)
		}
		defer preview.Close()
	}

	var bar *progressbar.ProgressBar
	if src.Kind() != media.KindImage {
		bar = newFrameBar(src.Meta().FrameCount, job.Nested)
		defer bar.Finish()
	}

	opts := anonymize.Options{Mode: job.Mode, Ellipse: job.Ellipse, Annotate: job.Annotate}

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		frame, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("read %s: %w", job.Input, err)
		}

		// The detector owns threshold filtering; the job threshold is
		// forwarded unmodified and results are never re-filtered here.
		dets, err := p.Detector.Detect(frame, job.Threshold)
		if err != nil {
			return stats, fmt.Errorf("detection on %s: %w", job.Input, err)
		}
		stats.Detections += len(dets)

		anonymize.Frame(frame, dets, job.MaskScale, opts)

		if sink != nil {
			if err := sink.Append(frame); err != nil {
				return stats, err
			}
		}
		stats.Frames++

		if preview != nil {
			if err := preview.Show(frame); err != nil {
				if errors.Is(err, ErrPreviewClosed) {
					break // operator quit; resources still close below
				}
				return stats, err
			}
		}
		if bar != nil {
			bar.Add(1)
		}
	}

	// Flush the sink now so encoder failures surface as this item's error
	// instead of being swallowed by the deferred close.
	if sink != nil {
		err := sink.Close()
		sink = nil
		if err != nil {
			return stats, err
		}
	}
	return stats, nil
}

func newFrameBar(total int, nested bool) *progressbar.ProgressBar {
	barTotal := int64(total)
	if barTotal <= 0 {
		barTotal = -1 // spinner for cameras and unknown-length streams
	}
	opts := []progressbar.Option{
		progressbar.OptionSetDescription("🫥 Anonymizing"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	}
	if nested {
		// Nested bars clear themselves so they never scroll the outer
		// batch bar.
		opts = append(opts, progressbar.OptionClearOnFinish())
	}
	return progressbar.NewOptions64(barTotal, opts...)
}
