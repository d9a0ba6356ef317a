package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"strconv"

	"github.com/otiai10/gosseract/v2"
)

// DefaultLanguage is the trained data used for Argentine documents.
const DefaultLanguage = "spa"

// DefaultDPI is the resolution patterns and thresholds were tuned against.
const DefaultDPI = 300

// Tesseract recognizes text through a local tesseract installation. A new
// client is created per call, so one value can serve concurrent workers.
type Tesseract struct {
	Languages []string
	DPI       int
	PageSeg   gosseract.PageSegMode

	clientFactory func() *gosseract.Client
}

// NewTesseract returns an engine for the given languages (DefaultLanguage if none).
func NewTesseract(languages ...string) *Tesseract {
	if len(languages) == 0 {
		languages = []string{DefaultLanguage}
	}
	return &Tesseract{
		Languages:     languages,
		DPI:           DefaultDPI,
		PageSeg:       gosseract.PSM_AUTO,
		clientFactory: gosseract.NewClient,
	}
}

// Recognize returns the raw text of a preprocessed page.
func (t *Tesseract) Recognize(ctx context.Context, img *image.Gray) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	client, err := t.client(img)
	if err != nil {
		return "", err
	}
	defer client.Close()
	if err := client.SetPageSegMode(t.PageSeg); err != nil {
		return "", fmt.Errorf("set page seg mode: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr error: %w", err)
	}
	slog.Debug("ocr text", "chars", len(text), "snippet", snippet(text, 120))
	return text, nil
}

// Orientation asks tesseract's orientation detection for the clockwise
// rotation that makes the page upright.
func (t *Tesseract) Orientation(ctx context.Context, img image.Image) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	client, err := t.client(img)
	if err != nil {
		return 0, err
	}
	defer client.Close()
	if err := client.SetPageSegMode(gosseract.PSM_OSD_ONLY); err != nil {
		return 0, fmt.Errorf("set page seg mode: %w", err)
	}
	deg, conf, _, _, err := client.DetectOrientationScript()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNoOrientation, err)
	}
	slog.Debug("orientation detected", "degrees", deg, "confidence", conf)
	return (360 - deg%360) % 360, nil
}

func (t *Tesseract) client(img image.Image) (*gosseract.Client, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode page: %w", err)
	}
	factory := t.clientFactory
	if factory == nil {
		factory = gosseract.NewClient
	}
	c := factory()
	if len(t.Languages) > 0 {
		if err := c.SetLanguage(t.Languages...); err != nil {
			c.Close()
			return nil, fmt.Errorf("set languages: %w", err)
		}
	}
	if t.DPI > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), strconv.Itoa(t.DPI)); err != nil {
			c.Close()
			return nil, fmt.Errorf("set dpi: %w", err)
		}
	}
	if err := c.SetImageFromBytes(buf.Bytes()); err != nil {
		c.Close()
		return nil, fmt.Errorf("set image: %w", err)
	}
	return c, nil
}
