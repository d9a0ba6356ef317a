// Command facturas extracts invoice and waybill fields from a directory of
// scans, writing one text report per page.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"facturaocr/pkg/ocr"
	"facturaocr/pkg/pipeline"
	"facturaocr/process/batch"
)

func main() {
	fs := ff.NewFlagSet("facturas")
	var (
		input       = fs.StringLong("input", "entrada", "directory with PDF or image scans")
		output      = fs.StringLong("out", "", "directory for the text reports (default: input directory)")
		processed   = fs.StringLong("processed", "", "move sources here once their reports are written (optional)")
		watch       = fs.BoolLong("watch", "keep running and process files as they arrive")
		workers     = fs.IntLong("workers", 0, "worker pool size (default NumCPU)")
		lang        = fs.StringLong("lang", ocr.DefaultLanguage, "tesseract languages, '+' separated")
		binarize    = fs.StringLong("binarize", "adaptive", "binarization: 'adaptive' or 'otsu'")
		deskew      = fs.StringLong("deskew", "geometry", "deskew: 'geometry', 'orientation' or 'none'")
		excludeIIBB = fs.BoolLong("exclude-iibb", "ignore the CUIT labelled as Ingresos Brutos registration")
		verbose     = fs.BoolLong("verbose", "debug logging")
	)
	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("FACTURAS")); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if *verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	p, err := pipeline.FromConfig(pipeline.Config{
		Languages:            *lang,
		Binarization:         *binarize,
		Deskew:               *deskew,
		ExcludeGrossReceipts: *excludeIIBB,
	})
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := batch.New(p, batch.Config{
		InputDir:     *input,
		OutputDir:    *output,
		ProcessedDir: *processed,
		Workers:      *workers,
	})
	sum, err := runner.Run(ctx)
	if err != nil {
		slog.Error("Batch failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Batch done", "processed", sum.Processed, "failed", sum.Failed, "reports", sum.Reports)

	if *watch {
		if err := runner.Watch(ctx); err != nil {
			slog.Error("Watch failed", "error", err)
			os.Exit(1)
		}
		slog.Info("Shutting down...")
	}
	if !*watch && sum.Failed > 0 {
		os.Exit(2)
	}
}
