package pipeline

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"strings"

	"facturaocr/pkg/extract"
	"facturaocr/pkg/ocr"
	"facturaocr/pkg/report"
)

// Recognizer turns a preprocessed page into raw text.
type Recognizer interface {
	Recognize(ctx context.Context, img *image.Gray) (string, error)
}

// OrientationDetector reports the clockwise rotation that makes a page upright.
type OrientationDetector interface {
	Orientation(ctx context.Context, img image.Image) (int, error)
}

// Page is the outcome of one processed page.
type Page struct {
	// Index is zero-based within the source document.
	Index  int
	Suffix string
	Type   extract.DocumentType
	Fields *extract.Fields
	Text   string
	Report string
}

// Pipeline runs preprocess, recognition, classification, extraction and
// formatting for each page, strictly in sequence.
type Pipeline struct {
	engine       Recognizer
	extractor    *extract.Extractor
	binarization ocr.Binarization
	deskew       ocr.DeskewMode
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithExtractor replaces the default field extractor.
func WithExtractor(e *extract.Extractor) Option {
	return func(p *Pipeline) { p.extractor = e }
}

// WithBinarization selects the thresholding policy.
func WithBinarization(b ocr.Binarization) Option {
	return func(p *Pipeline) { p.binarization = b }
}

// WithDeskew selects the rotation correction policy. DeskewOrientation needs
// an engine that also implements OrientationDetector.
func WithDeskew(m ocr.DeskewMode) Option {
	return func(p *Pipeline) { p.deskew = m }
}

// New returns a pipeline calling engine once per page.
func New(engine Recognizer, opts ...Option) *Pipeline {
	p := &Pipeline{engine: engine, extractor: extract.New()}
	for _, fn := range opts {
		fn(p)
	}
	return p
}

// ProcessImage handles a single page bitmap.
func (p *Pipeline) ProcessImage(ctx context.Context, img image.Image) (*Page, error) {
	opts := []ocr.Option{ocr.WithBinarization(p.binarization), ocr.WithDeskew(p.deskew)}
	if det, ok := p.engine.(OrientationDetector); ok && p.deskew == ocr.DeskewOrientation {
		opts = append(opts, ocr.WithOrientationHint(func(img image.Image) (int, error) {
			return det.Orientation(ctx, img)
		}))
	}
	prepared, err := ocr.Preprocess(img, opts...)
	if err != nil {
		return nil, fmt.Errorf("preprocess: %w", err)
	}
	text, err := p.engine.Recognize(ctx, prepared)
	if err != nil {
		return nil, fmt.Errorf("recognize: %w", err)
	}
	return p.ProcessText(text), nil
}

// ProcessText classifies and extracts already recognized text.
func (p *Pipeline) ProcessText(text string) *Page {
	docType := extract.Classify(text)
	fields := p.extractor.Extract(text, docType)
	return &Page{
		Type:   docType,
		Fields: fields,
		Text:   text,
		Report: report.Format(fields, text, docType),
	}
}

// ProcessFile loads every page of a PDF or image file and processes them in
// order. Multi-page documents get a "_pag_N" suffix per page.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) ([]*Page, error) {
	images, err := LoadPages(path)
	if err != nil {
		return nil, err
	}
	pages := make([]*Page, 0, len(images))
	for i, img := range images {
		page, err := p.ProcessImage(ctx, img)
		if err != nil {
			return pages, fmt.Errorf("page %d: %w", i+1, err)
		}
		page.Index = i
		if len(images) > 1 {
			page.Suffix = fmt.Sprintf("_pag_%d", i+1)
		}
		slog.Info("page processed", "file", filepath.Base(path), "page", i+1, "type", page.Type.String(), "found", countFound(page.Fields))
		pages = append(pages, page)
	}
	return pages, nil
}

// ReportName returns the report file name for a page of source.
func ReportName(source string, page *Page) string {
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base)) + page.Suffix + ".txt"
}

func countFound(f *extract.Fields) int {
	n := 0
	for _, k := range f.Keys() {
		if f.Found(k) {
			n++
		}
	}
	return n
}

// Config is the flag-level description of a tesseract backed pipeline.
type Config struct {
	// Languages is a '+' separated list of tesseract trained data names.
	Languages            string
	Binarization         string
	Deskew               string
	ExcludeGrossReceipts bool
}

// FromConfig builds a pipeline around a local tesseract installation.
func FromConfig(cfg Config) (*Pipeline, error) {
	bin, err := ocr.ParseBinarization(cfg.Binarization)
	if err != nil {
		return nil, err
	}
	deskew, err := ocr.ParseDeskewMode(cfg.Deskew)
	if err != nil {
		return nil, err
	}
	opts := []Option{WithBinarization(bin), WithDeskew(deskew)}
	if cfg.ExcludeGrossReceipts {
		opts = append(opts, WithExtractor(extract.New(extract.WithGrossReceiptsExcluded())))
	}
	var langs []string
	if cfg.Languages != "" {
		langs = strings.Split(cfg.Languages, "+")
	}
	return New(ocr.NewTesseract(langs...), opts...), nil
}
