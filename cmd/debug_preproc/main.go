// Command debug_preproc writes the preprocessed bitmap of each page next to
// the source so thresholds can be checked by eye, and optionally prints the
// recognized text.
package main

import (
	"context"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"facturaocr/pkg/ocr"
	"facturaocr/pkg/pipeline"
)

func main() {
	fs := ff.NewFlagSet("debug_preproc")
	var (
		in       = fs.StringLong("in", "", "scan to preprocess (PDF or image)")
		outDir   = fs.StringLong("out", os.TempDir(), "directory for the .pre.png files")
		binarize = fs.StringLong("binarize", "adaptive", "binarization: 'adaptive' or 'otsu'")
		deskew   = fs.StringLong("deskew", "geometry", "deskew: 'geometry', 'orientation' or 'none'")
		lang     = fs.StringLong("lang", ocr.DefaultLanguage, "tesseract languages, '+' separated")
		runOCR   = fs.BoolLong("ocr", "also run tesseract and print the text")
	)
	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("FACTURAS")); err != nil || *in == "" {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}

	bin, err := ocr.ParseBinarization(*binarize)
	if err != nil {
		log.Fatalf("binarize: %v", err)
	}
	mode, err := ocr.ParseDeskewMode(*deskew)
	if err != nil {
		log.Fatalf("deskew: %v", err)
	}
	pages, err := pipeline.LoadPages(*in)
	if err != nil {
		log.Fatalf("open: %v", err)
	}

	engine := ocr.NewTesseract(strings.Split(*lang, "+")...)
	ctx := context.Background()
	opts := []ocr.Option{ocr.WithBinarization(bin), ocr.WithDeskew(mode)}
	if mode == ocr.DeskewOrientation {
		opts = append(opts, ocr.WithOrientationHint(func(img image.Image) (int, error) {
			return engine.Orientation(ctx, img)
		}))
	}

	base := strings.TrimSuffix(filepath.Base(*in), filepath.Ext(*in))
	for i, page := range pages {
		pre, err := ocr.Preprocess(page, opts...)
		if err != nil {
			log.Fatalf("page %d: %v", i+1, err)
		}
		dst := filepath.Join(*outDir, fmt.Sprintf("%s_pag_%d.pre.png", base, i+1))
		if err := imaging.Save(pre, dst); err != nil {
			log.Fatalf("save: %v", err)
		}
		fmt.Printf("page %d: %dx%d -> %s\n", i+1, pre.Bounds().Dx(), pre.Bounds().Dy(), dst)
		if *runOCR {
			text, err := engine.Recognize(ctx, pre)
			if err != nil {
				log.Fatalf("ocr err: %v", err)
			}
			fmt.Printf("--- page %d text ---\n%s\n", i+1, text)
		}
	}
}
