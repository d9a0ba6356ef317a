// Package batch runs the extraction pipeline over a directory of scans and
// writes one text report per page.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"facturaocr/pkg/pipeline"
)

// Processor turns one source file into processed pages.
type Processor interface {
	ProcessFile(ctx context.Context, path string) ([]*pipeline.Page, error)
}

// Config describes where scans come from and where reports go.
type Config struct {
	InputDir  string
	OutputDir string
	// ProcessedDir, when set, receives each source file after all of its
	// reports were written.
	ProcessedDir string
	Workers      int
}

// Summary counts the outcome of a run.
type Summary struct {
	Processed int
	Failed    int
	Reports   int
}

// Runner owns a Processor and a Config.
type Runner struct {
	cfg  Config
	proc Processor

	processed atomic.Int64
	failed    atomic.Int64
	reports   atomic.Int64
}

// New returns a Runner. OutputDir defaults to InputDir.
func New(proc Processor, cfg Config) *Runner {
	if cfg.OutputDir == "" {
		cfg.OutputDir = cfg.InputDir
	}
	return &Runner{cfg: cfg, proc: proc}
}

func (r *Runner) workers() int {
	if r.cfg.Workers <= 0 {
		return runtime.NumCPU()
	}
	return r.cfg.Workers
}

// Run processes every supported file currently in the input directory.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	files, err := listInputFiles(r.cfg.InputDir)
	if err != nil {
		return Summary{}, err
	}
	if err := os.MkdirAll(r.cfg.OutputDir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("create output dir: %w", err)
	}
	slog.Info("scanning input", "dir", r.cfg.InputDir, "files", len(files), "workers", r.workers())

	fileCh := make(chan string, len(files))
	for _, f := range files {
		fileCh <- f
	}
	close(fileCh)
	r.runWorkerPool(ctx, fileCh)
	return r.Summary(), ctx.Err()
}

// Summary returns counters accumulated so far.
func (r *Runner) Summary() Summary {
	return Summary{
		Processed: int(r.processed.Load()),
		Failed:    int(r.failed.Load()),
		Reports:   int(r.reports.Load()),
	}
}

// runWorkerPool drains fileCh with the configured number of workers and
// returns once the channel is closed and every file is done.
func (r *Runner) runWorkerPool(ctx context.Context, fileCh <-chan string) {
	var wg sync.WaitGroup
	for i := 0; i < r.workers(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range fileCh {
				if ctx.Err() != nil {
					continue
				}
				if err := r.processSingleFile(ctx, name); err != nil {
					r.failed.Add(1)
					slog.Error("processing failed", "file", name, "error", err)
					continue
				}
				r.processed.Add(1)
			}
		}()
	}
	wg.Wait()
}

func (r *Runner) processSingleFile(ctx context.Context, name string) error {
	src := filepath.Join(r.cfg.InputDir, name)
	pages, err := r.proc.ProcessFile(ctx, src)
	if err != nil {
		return err
	}
	for _, p := range pages {
		dst := filepath.Join(r.cfg.OutputDir, pipeline.ReportName(name, p))
		if err := writeReport(dst, p.Report); err != nil {
			return err
		}
		r.reports.Add(1)
		slog.Debug("report written", "file", name, "report", dst)
	}
	if r.cfg.ProcessedDir != "" {
		if err := moveToProcessed(src, r.cfg.ProcessedDir); err != nil {
			slog.Warn("failed to move processed file", "file", name, "error", err)
		}
	}
	return nil
}

// writeReport writes through a temporary file so watchers never see a
// half-written report.
func writeReport(path, report string) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(report), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func listInputFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !isSupportedExt(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out, nil
}

func isSupportedExt(name string) bool {
	// skip hidden files and partial downloads
	if strings.HasPrefix(name, ".") {
		return false
	}
	return pipeline.IsSupported(name)
}
