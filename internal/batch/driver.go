// Package batch discovers files under a directory, classifies them, and
// feeds each one through the stream processor, isolating per-item failures
// so the batch always runs to the end.
package batch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"

	"github.com/andresmejia3/veil/internal/media"
	"github.com/andresmejia3/veil/internal/stream"
	"github.com/andresmejia3/veil/internal/types"
	"github.com/andresmejia3/veil/internal/utils"
)

// OutputSuffix is inserted before the extension of every derived output
// path.
const OutputSuffix = "_anonymized"

// DeriveOutputPath maps photo.jpg to photo_anonymized.jpg.
func DeriveOutputPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + OutputSuffix + ext
}

// Result is the outcome of one batch item.
type Result struct {
	Path    string
	Output  string
	Stats   stream.Stats
	Skipped bool
	Err     error
}

// Driver walks a directory and anonymizes every classifiable file in it.
type Driver struct {
	Processor *stream.Processor
	// ExtFilter keeps only files with this extension (without dot); "*" or
	// empty means no filter.
	ExtFilter string
	// OnResult, when set, observes every item outcome (used for the audit
	// store). It must not abort the batch.
	OnResult func(Result)
}

// Run discovers files under root recursively and processes them strictly
// sequentially. Per-item failures and unknown content types are reported
// and skipped; the batch only stops when ctx is cancelled.
func (d *Driver) Run(ctx context.Context, root string, template types.StreamJob) error {
	paths, err := d.discover(root)
	if err != nil {
		return fmt.Errorf("scan directory %s: %w", root, err)
	}
	if len(paths) == 0 {
		fmt.Fprintf(os.Stderr, "📂 No matching files under %s\n", root)
		return nil
	}

	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetDescription("📂 Anonymizing files"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)
	defer bar.Finish()

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		bar.Describe(fmt.Sprintf("📂 %s", filepath.Base(path)))

		res := d.runItem(ctx, path, template)
		if d.OnResult != nil {
			d.OnResult(res)
		}
		bar.Add(1)
	}
	return nil
}

// runItem classifies and processes one file. All failures are contained
// here: they are reported to the operator and returned for observation, but
// never propagate to the batch loop.
func (d *Driver) runItem(ctx context.Context, path string, template types.StreamJob) Result {
	res := Result{Path: path}

	if _, err := media.Classify(path); err != nil {
		fmt.Fprintf(os.Stderr, "\n⏭️  Skipping %s: %v\n", path, err)
		res.Skipped = true
		res.Err = err
		return res
	}

	job := template
	job.Input = path
	job.Output = DeriveOutputPath(path)
	job.Nested = true
	job.Preview = false // never preview in batch mode
	res.Output = job.Output

	stats, err := d.Processor.Run(ctx, job)
	res.Stats = stats
	if err != nil {
		// Context cancellation is the batch's problem, not the item's.
		if ctx.Err() != nil {
			res.Err = ctx.Err()
			return res
		}
		utils.ShowError(fmt.Sprintf("Failed to anonymize %s", path), err, nil)
		res.Skipped = true
		res.Err = err
	}
	return res
}

func (d *Driver) discover(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if !d.matchExt(path) {
			return nil
		}
		// Never re-anonymize our own outputs on repeated runs.
		base := filepath.Base(path)
		if strings.Contains(base, OutputSuffix) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	return paths, err
}

func (d *Driver) matchExt(path string) bool {
	if d.ExtFilter == "" || d.ExtFilter == "*" {
		return true
	}
	want := "." + strings.TrimPrefix(d.ExtFilter, ".")
	return strings.EqualFold(filepath.Ext(path), want)
}
