package ocr

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/disintegration/imaging"
)

// skewedPage draws horizontal text-like bars inside a block, turned
// counter-clockwise by deg degrees around the page center.
func skewedPage(w, h int, deg float64) *image.NRGBA {
	img := imaging.New(w, h, color.NRGBA{255, 255, 255, 255})
	rad := deg * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	cx, cy := float64(w)/2, float64(h)/2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px, py := float64(x)-cx, cy-float64(y)
			u := cos*px + sin*py
			v := -sin*px + cos*py
			if math.Abs(u) > float64(w)/3 || math.Abs(v) > float64(h)/4 {
				continue
			}
			if int(math.Floor(v+float64(h)))%10 < 4 {
				img.Set(x, y, color.NRGBA{0, 0, 0, 255})
			}
		}
	}
	return img
}

func TestNormalizeRectAngle(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{-90, 0},
		{-88, -2},
		{-2, 2},
		{-45, 45},
		{-46, -44},
	}
	for _, c := range cases {
		if got := normalizeRectAngle(c.in); math.Abs(got-c.want) > 1e-9 {
			t.Fatalf("normalizeRectAngle(%v) = %v want %v", c.in, got, c.want)
		}
	}
}

func TestDetectSkew(t *testing.T) {
	for _, deg := range []float64{3, -3, 7} {
		img := skewedPage(400, 300, deg)
		got, ok := detectSkew(img)
		if !ok {
			t.Fatalf("no ink detected for %v°", deg)
		}
		if math.Abs(got+deg) > 0.5 {
			t.Fatalf("page turned %v° got correction %v", deg, got)
		}
	}
}

func TestDetectSkewLevelPage(t *testing.T) {
	got, ok := detectSkew(skewedPage(400, 300, 0))
	if !ok {
		t.Fatalf("no ink detected")
	}
	if math.Abs(got) > minSkew {
		t.Fatalf("level page should not need correction got %v", got)
	}
}

func TestDeskewBlankPageUnchanged(t *testing.T) {
	img := imaging.New(50, 40, color.NRGBA{255, 255, 255, 255})
	if _, ok := detectSkew(img); ok {
		t.Fatalf("blank page should have no ink")
	}
	if out := Deskew(img); out != image.Image(img) {
		t.Fatalf("blank page should be returned as is")
	}
}

func TestCorrectSkewThreshold(t *testing.T) {
	img := skewedPage(200, 150, 0)
	before := append([]uint8(nil), img.Pix...)

	out := correctSkew(img, 0.3)
	same, ok := out.(*image.NRGBA)
	if !ok || same != img {
		t.Fatalf("0.3° must leave the image untouched")
	}
	for i := range before {
		if before[i] != same.Pix[i] {
			t.Fatalf("pixel %d changed", i)
		}
	}

	rot := correctSkew(img, 1.2)
	if rot == image.Image(img) {
		t.Fatalf("1.2° must trigger a rotation")
	}
	if rot.Bounds().Dx() <= 200 || rot.Bounds().Dy() <= 150 {
		t.Fatalf("rotation should expand canvas got %v", rot.Bounds())
	}
}

func TestRotateBicubicFillsWhite(t *testing.T) {
	img := imaging.New(100, 60, color.NRGBA{0, 0, 0, 255})
	out := rotateBicubic(img, 10, color.White)
	r, g, b, _ := out.At(0, 0).RGBA()
	if r>>8 != 255 || g>>8 != 255 || b>>8 != 255 {
		t.Fatalf("corner should be white got %d,%d,%d", r>>8, g>>8, b>>8)
	}
	c := out.RGBAAt(out.Bounds().Dx()/2, out.Bounds().Dy()/2)
	if c.R > 10 {
		t.Fatalf("center should stay black got %v", c)
	}
}

func TestDeskewStraightensPage(t *testing.T) {
	img := skewedPage(400, 300, 4)
	out := Deskew(img)
	got, ok := detectSkew(out)
	if !ok {
		t.Fatalf("ink lost after deskew")
	}
	if math.Abs(got) > 1 {
		t.Fatalf("residual skew %v after correction", got)
	}
}
