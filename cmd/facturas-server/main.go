// Command facturas-server serves field extraction over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"facturaocr/pkg/ocr"
	"facturaocr/pkg/pipeline"
	"facturaocr/server"
)

func main() {
	fs := ff.NewFlagSet("facturas-server")
	var (
		addr        = fs.StringLong("addr", ":8081", "listen address")
		lang        = fs.StringLong("lang", ocr.DefaultLanguage, "tesseract languages, '+' separated")
		binarize    = fs.StringLong("binarize", "adaptive", "binarization: 'adaptive' or 'otsu'")
		deskew      = fs.StringLong("deskew", "geometry", "deskew: 'geometry', 'orientation' or 'none'")
		excludeIIBB = fs.BoolLong("exclude-iibb", "ignore the CUIT labelled as Ingresos Brutos registration")
		maxUpload   = fs.IntLong("max-upload", server.DefaultMaxUpload, "largest accepted upload in bytes")
		tmpDir      = fs.StringLong("tmp", "", "staging directory for uploads (default: system temp)")
		verbose     = fs.BoolLong("verbose", "debug logging")
		_           = fs.StringLong("config", ".env", "config file with one 'flag value' pair per line (optional)")
	)
	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("FACTURAS"),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
		ff.WithConfigAllowMissingFile(),
	); err != nil {
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

	srv := server.New(p, server.WithMaxUpload(int64(*maxUpload)), server.WithTempDir(*tmpDir))
	httpSrv := &http.Server{
		Addr:              *addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()
	slog.Info("Server started", "address", *addr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		slog.Error("Shutdown failed", "error", err)
	}
}
