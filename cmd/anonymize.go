package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/andresmejia3/veil/internal/batch"
	"github.com/andresmejia3/veil/internal/detect"
	"github.com/andresmejia3/veil/internal/media"
	"github.com/andresmejia3/veil/internal/store"
	"github.com/andresmejia3/veil/internal/stream"
	"github.com/andresmejia3/veil/internal/types"
)

// runAnonymize dispatches the input to the right driver: a directory runs
// the batch loop, a file or camera spec runs a single stream job.
func runAnonymize(ctx context.Context, input string, opts Options) error {
	mode, err := types.ParseMode(opts.ReplaceWith)
	if err != nil {
		return err
	}
	if err := validateFlags(&opts); err != nil {
		return err
	}

	inferW, inferH, err := parseScale(opts.Scale)
	if err != nil {
		return err
	}

	detector, err := detect.New(detect.Config{
		CascadePath: opts.Cascade,
		Backend:     opts.Backend,
		InferWidth:  inferW,
		InferHeight: inferH,
	})
	if err != nil {
		return err
	}
	proc := stream.New(detector)

	job := types.StreamJob{
		Threshold: opts.Threshold,
		Mode:      mode,
		MaskScale: opts.MaskScale,
		Ellipse:   !opts.EnableBoxes,
		Annotate:  opts.EnableEnum,
	}

	if media.IsCameraSpec(input) {
		job.Input = input
		job.Camera = true
		job.Output = opts.Output // no default output for live capture
		job.Preview = !opts.DisableGUI
		return runSingle(ctx, proc, job)
	}

	info, err := os.Stat(input)
	if err != nil {
		return &media.OpenError{Path: input, Err: err}
	}

	if info.IsDir() {
		driver := &batch.Driver{
			Processor: proc,
			ExtFilter: opts.ExtFilter,
			OnResult:  recordResult(),
		}
		return driver.Run(ctx, input, job)
	}

	// Single file: unknown content types are fatal here, unlike batch mode.
	if _, err := media.Classify(input); err != nil {
		return err
	}
	job.Input = input
	job.Output = opts.Output
	if job.Output == "" {
		job.Output = batch.DeriveOutputPath(input)
	}
	job.Preview = !opts.DisableGUI
	return runSingle(ctx, proc, job)
}

func runSingle(ctx context.Context, proc *stream.Processor, job types.StreamJob) error {
	stats, err := proc.Run(ctx, job)

	if DB != nil {
		status, detail := store.StatusOf(false, err)
		rec := store.RunRecord{
			Input:      job.Input,
			Output:     job.Output,
			Frames:     stats.Frames,
			Detections: stats.Detections,
			Status:     status,
			Detail:     detail,
		}
		// Background: recording must survive a Ctrl+C that cancelled ctx.
		if dbErr := DB.RecordRun(context.Background(), rec); dbErr != nil {
			fmt.Fprintf(os.Stderr, "⚠️  Failed to record run: %v\n", dbErr)
		}
	}

	if err != nil {
		return err
	}
	if job.Output != "" {
		fmt.Fprintf(os.Stderr, "\n🏁 Done. %d frames, %d detections. Output saved to %s\n",
			stats.Frames, stats.Detections, job.Output)
	}
	return nil
}

// recordResult feeds batch outcomes into the audit store when connected.
func recordResult() func(batch.Result) {
	if DB == nil {
		return nil
	}
	return func(r batch.Result) {
		status, detail := store.StatusOf(r.Skipped, r.Err)
		rec := store.RunRecord{
			Input:      r.Path,
			Output:     r.Output,
			Frames:     r.Stats.Frames,
			Detections: r.Stats.Detections,
			Status:     status,
			Detail:     detail,
		}
		if err := DB.RecordRun(context.Background(), rec); err != nil {
			fmt.Fprintf(os.Stderr, "⚠️  Failed to record run for %s: %v\n", r.Path, err)
		}
	}
}

func validateFlags(opts *Options) error {
	if opts.Threshold < 0 || opts.Threshold > 1.0 {
		return fmt.Errorf("invalid detection threshold: must be between 0.0 and 1.0, got %g", opts.Threshold)
	}
	if opts.MaskScale <= 0 {
		return fmt.Errorf("invalid mask scale: must be positive, got %g", opts.MaskScale)
	}
	return nil
}

// parseScale splits an inference resolution like "640x360".
func parseScale(s string) (int, int, error) {
	if s == "" {
		return 0, 0, nil
	}
	w, h, found := strings.Cut(s, "x")
	if !found {
		return 0, 0, fmt.Errorf("invalid scale %q: expected WxH, e.g. 640x360", s)
	}
	width, err1 := strconv.Atoi(w)
	height, err2 := strconv.Atoi(h)
	if err1 != nil || err2 != nil || width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("invalid scale %q: expected WxH, e.g. 640x360", s)
	}
	return width, height, nil
}
