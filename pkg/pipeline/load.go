package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/tiff" // Register TIFF decoder
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// ErrUnsupportedInput is returned for files that are neither a PDF nor a
// decodable bitmap.
var ErrUnsupportedInput = errors.New("unsupported input")

// RenderDPI is the resolution PDF pages are rasterized at.
const RenderDPI = 300

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".tif": true, ".tiff": true, ".bmp": true, ".webp": true,
	".heic": true, ".heif": true,
}

// IsSupported reports whether name has an extension LoadPages understands.
func IsSupported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".pdf" || imageExts[ext]
}

// LoadPages returns one bitmap per page of the file at path.
func LoadPages(path string) ([]image.Image, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".pdf":
		return renderPDF(path)
	case ext == ".heic" || ext == ".heif":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		img, err := heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: decoding HEIC/HEIF image: %v", ErrUnsupportedInput, err)
		}
		return []image.Image{img}, nil
	case imageExts[ext]:
		img, err := imaging.Open(path, imaging.AutoOrientation(true))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: open image: %v", ErrUnsupportedInput, err)
		}
		return []image.Image{img}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedInput, filepath.Base(path))
}

func renderPDF(path string) ([]image.Image, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening PDF: %v", ErrUnsupportedInput, err)
	}
	defer doc.Close()

	pages := make([]image.Image, 0, doc.NumPage())
	for n := 0; n < doc.NumPage(); n++ {
		img, err := doc.ImageDPI(n, RenderDPI)
		if err != nil {
			return nil, fmt.Errorf("rendering PDF page %d: %w", n+1, err)
		}
		pages = append(pages, img)
	}
	return pages, nil
}
