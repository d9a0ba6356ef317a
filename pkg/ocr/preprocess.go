package ocr

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/disintegration/imaging"
)

// Binarization selects how the deskewed page is turned into black and white.
type Binarization int

const (
	// BinarizeAdaptive thresholds each pixel against its local mean. It copes
	// with lighting gradients across the page.
	BinarizeAdaptive Binarization = iota
	// BinarizeOtsu uses one global threshold followed by a contrast boost.
	BinarizeOtsu
)

// DeskewMode selects the rotation correction strategy.
type DeskewMode int

const (
	// DeskewGeometry measures the ink bounding rectangle and rotates by its angle.
	DeskewGeometry DeskewMode = iota
	// DeskewOrientation applies the engine's coarse 90° rotation hint.
	DeskewOrientation
	// DeskewNone leaves page geometry untouched.
	DeskewNone
)

// ParseBinarization maps "adaptive" or "otsu" to a Binarization.
func ParseBinarization(s string) (Binarization, error) {
	switch s {
	case "", "adaptive":
		return BinarizeAdaptive, nil
	case "otsu":
		return BinarizeOtsu, nil
	}
	return 0, fmt.Errorf("unknown binarization %q", s)
}

// ParseDeskewMode maps "geometry", "orientation" or "none" to a DeskewMode.
func ParseDeskewMode(s string) (DeskewMode, error) {
	switch s {
	case "", "geometry":
		return DeskewGeometry, nil
	case "orientation":
		return DeskewOrientation, nil
	case "none":
		return DeskewNone, nil
	}
	return 0, fmt.Errorf("unknown deskew mode %q", s)
}

const (
	adaptiveBlock  = 11
	adaptiveOffset = 2
	medianWindow   = 3
	// contrastBoost is a percentage for imaging.AdjustContrast; 100 doubles contrast.
	contrastBoost = 100
)

// OrientationHint returns the clockwise rotation in degrees (0, 90, 180 or 270)
// needed to bring the page upright.
type OrientationHint func(img image.Image) (int, error)

type options struct {
	binarization Binarization
	deskew       DeskewMode
	orientation  OrientationHint
}

// Option configures Preprocess.
type Option func(*options)

// WithBinarization overrides the default adaptive thresholding.
func WithBinarization(b Binarization) Option {
	return func(o *options) { o.binarization = b }
}

// WithDeskew overrides the default geometric deskew.
func WithDeskew(m DeskewMode) Option {
	return func(o *options) { o.deskew = m }
}

// WithOrientationHint sets the hint source used by DeskewOrientation.
func WithOrientationHint(h OrientationHint) Option {
	return func(o *options) { o.orientation = h }
}

// Preprocess normalizes a scanned page into a binary, deskewed, denoised
// single-channel image ready for OCR. The input is never modified.
func Preprocess(img image.Image, opts ...Option) (*image.Gray, error) {
	if isEmpty(img) {
		return nil, ErrEmptyImage
	}
	o := options{}
	for _, fn := range opts {
		fn(&o)
	}

	switch o.deskew {
	case DeskewGeometry:
		img = Deskew(img)
	case DeskewOrientation:
		img = applyOrientation(img, o.orientation)
	}

	gray := toGray(img)
	var bin *image.Gray
	if o.binarization == BinarizeOtsu {
		bin = binarize(gray, otsuThreshold(gray))
	} else {
		bin = adaptiveThreshold(gray, adaptiveBlock, adaptiveOffset)
	}
	bin = medianFilter(bin, medianWindow)
	if o.binarization == BinarizeOtsu {
		bin = toGray(imaging.AdjustContrast(bin, contrastBoost))
	}
	return bin, nil
}

// applyOrientation rotates img clockwise by the hint. A failing or missing
// hint leaves the page as it is.
func applyOrientation(img image.Image, hint OrientationHint) image.Image {
	if hint == nil {
		return img
	}
	deg, err := hint(img)
	if err != nil {
		slog.Warn("orientation detection failed, skipping rotation", "error", err)
		return img
	}
	switch ((deg % 360) + 360) % 360 {
	case 90:
		return imaging.Rotate270(img)
	case 180:
		return imaging.Rotate180(img)
	case 270:
		return imaging.Rotate90(img)
	}
	return img
}

// otsuThreshold picks the global level that maximizes between-class variance.
func otsuThreshold(g *image.Gray) uint8 {
	var hist [256]int
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	for y := 0; y < h; y++ {
		for _, v := range g.Pix[y*g.Stride : y*g.Stride+w] {
			hist[v]++
		}
	}
	total := w * h
	sum := 0.0
	for i, c := range hist {
		sum += float64(i * c)
	}
	var (
		sumB, best float64
		wB         int
		level      uint8
	)
	for t := 0; t < 256; t++ {
		wB += hist[t]
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(t * hist[t])
		mB := sumB / float64(wB)
		mF := (sum - sumB) / float64(wF)
		between := float64(wB) * float64(wF) * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			level = uint8(t)
		}
	}
	return level
}

// binarize maps pixels above threshold to white and the rest to black.
func binarize(g *image.Gray, threshold uint8) *image.Gray {
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		src := g.Pix[y*g.Stride : y*g.Stride+w]
		dst := out.Pix[y*out.Stride : y*out.Stride+w]
		for x, v := range src {
			if v > threshold {
				dst[x] = 255
			}
		}
	}
	return out
}

// adaptiveThreshold performs a mean adaptive threshold: a pixel is white when
// it is brighter than its window mean minus bias.
func adaptiveThreshold(g *image.Gray, window int, bias int) *image.Gray {
	if window < 3 {
		window = 3
	}
	if window%2 == 0 {
		window++
	}
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	half := window / 2
	ints := make([]int, w*h)
	for y := 0; y < h; y++ {
		rowSum := 0
		for x := 0; x < w; x++ {
			rowSum += int(g.Pix[y*g.Stride+x])
			idx := y*w + x
			if y == 0 {
				ints[idx] = rowSum
			} else {
				ints[idx] = ints[(y-1)*w+x] + rowSum
			}
		}
	}
	at := func(x, y int) int {
		if x < 0 || y < 0 {
			return 0
		}
		return ints[y*w+x]
	}
	for y := 0; y < h; y++ {
		y0, y1 := max(y-half, 0), min(y+half, h-1)
		for x := 0; x < w; x++ {
			x0, x1 := max(x-half, 0), min(x+half, w-1)
			sum := at(x1, y1) - at(x0-1, y1) - at(x1, y0-1) + at(x0-1, y0-1)
			mean := sum / ((x1 - x0 + 1) * (y1 - y0 + 1))
			if int(g.Pix[y*g.Stride+x]) > mean-bias {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}

// medianFilter replaces each pixel by the median of its window, replicating
// edge pixels at the border.
func medianFilter(g *image.Gray, window int) *image.Gray {
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	half := window / 2
	buf := make([]uint8, 0, window*window)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			buf = buf[:0]
			for dy := -half; dy <= half; dy++ {
				yy := min(max(y+dy, 0), h-1)
				for dx := -half; dx <= half; dx++ {
					xx := min(max(x+dx, 0), w-1)
					buf = insertSorted(buf, g.Pix[yy*g.Stride+xx])
				}
			}
			out.Pix[y*out.Stride+x] = buf[len(buf)/2]
		}
	}
	return out
}

func insertSorted(s []uint8, v uint8) []uint8 {
	s = append(s, v)
	i := len(s) - 1
	for i > 0 && s[i-1] > v {
		s[i] = s[i-1]
		i--
	}
	s[i] = v
	return s
}
