package ocr

import (
	"image"
	"image/color"
	"math"
	"sort"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// minSkew is the smallest correction, in degrees, worth a resampling pass.
const minSkew = 0.5

// Deskew straightens a scanned page by measuring the rotation of the
// smallest rectangle enclosing all ink. Pages without ink, or with a skew
// under half a degree, are returned as is.
func Deskew(img image.Image) image.Image {
	angle, ok := detectSkew(img)
	if !ok {
		return img
	}
	return correctSkew(img, angle)
}

// detectSkew returns the counter-clockwise correction angle in degrees.
func detectSkew(img image.Image) (float64, bool) {
	inv := toGray(img)
	for i, v := range inv.Pix {
		inv.Pix[i] = 255 - v
	}
	ink := binarize(inv, otsuThreshold(inv))
	pts := inkExtremes(ink)
	if len(pts) == 0 {
		return 0, false
	}
	return normalizeRectAngle(minAreaRectAngle(convexHull(pts))), true
}

// correctSkew rotates img counter-clockwise by angle degrees unless the angle
// is below minSkew, in which case img itself is returned.
func correctSkew(img image.Image, angle float64) image.Image {
	if math.Abs(angle) <= minSkew {
		return img
	}
	return rotateBicubic(img, angle, color.White)
}

// normalizeRectAngle maps a rectangle angle in [-90, 0) to the rotation that
// levels it.
func normalizeRectAngle(angle float64) float64 {
	if angle < -45 {
		return -(90 + angle)
	}
	return -angle
}

// point holds ink coordinates in row-major order: r is the row (y) and c the
// column (x). The angle convention of minAreaRectAngle relies on this order.
type point struct{ r, c float64 }

// inkExtremes keeps the leftmost and rightmost ink pixel of each row; the
// convex hull of these equals the hull of all ink.
func inkExtremes(g *image.Gray) []point {
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	var pts []point
	for y := 0; y < h; y++ {
		row := g.Pix[y*g.Stride : y*g.Stride+w]
		first, last := -1, -1
		for x, v := range row {
			if v > 0 {
				if first < 0 {
					first = x
				}
				last = x
			}
		}
		if first < 0 {
			continue
		}
		pts = append(pts, point{float64(y), float64(first)})
		if last != first {
			pts = append(pts, point{float64(y), float64(last)})
		}
	}
	return pts
}

func cross(o, a, b point) float64 {
	return (a.r-o.r)*(b.c-o.c) - (a.c-o.c)*(b.r-o.r)
}

// convexHull uses Andrew's monotone chain.
func convexHull(pts []point) []point {
	if len(pts) < 3 {
		return pts
	}
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].r != pts[j].r {
			return pts[i].r < pts[j].r
		}
		return pts[i].c < pts[j].c
	})
	hull := make([]point, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

// minAreaRectAngle finds the minimum-area enclosing rectangle of a convex
// hull by trying every hull edge as a side, and returns its angle in [-90, 0).
func minAreaRectAngle(hull []point) float64 {
	if len(hull) < 2 {
		return -90
	}
	bestArea := math.Inf(1)
	bestTheta := 0.0
	for i := range hull {
		a, b := hull[i], hull[(i+1)%len(hull)]
		dr, dc := b.r-a.r, b.c-a.c
		if dr == 0 && dc == 0 {
			continue
		}
		theta := math.Atan2(dc, dr)
		ur, uc := math.Cos(theta), math.Sin(theta)
		minU, maxU := math.Inf(1), math.Inf(-1)
		minV, maxV := math.Inf(1), math.Inf(-1)
		for _, p := range hull {
			u := p.r*ur + p.c*uc
			v := -p.r*uc + p.c*ur
			minU, maxU = math.Min(minU, u), math.Max(maxU, u)
			minV, maxV = math.Min(minV, v), math.Max(maxV, v)
		}
		if area := (maxU - minU) * (maxV - minV); area < bestArea {
			bestArea = area
			bestTheta = theta
		}
	}
	deg := math.Mod(bestTheta*180/math.Pi, 90)
	if deg < 0 {
		deg += 90
	}
	if deg == 0 {
		return -90
	}
	return deg - 90
}

// rotateBicubic rotates img counter-clockwise by angle degrees around its
// center, growing the canvas so no corner is clipped and filling the
// uncovered area with bg.
func rotateBicubic(img image.Image, angle float64, bg color.Color) *image.RGBA {
	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	rad := angle * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	nw := math.Ceil(math.Abs(w*cos) + math.Abs(h*sin))
	nh := math.Ceil(math.Abs(w*sin) + math.Abs(h*cos))

	dst := image.NewRGBA(image.Rect(0, 0, int(nw), int(nh)))
	xdraw.Draw(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, xdraw.Src)

	cx, cy := float64(b.Min.X)+w/2, float64(b.Min.Y)+h/2
	ncx, ncy := nw/2, nh/2
	// y grows downwards, so a visual counter-clockwise turn flips the sin terms.
	s2d := f64.Aff3{
		cos, sin, ncx - cos*cx - sin*cy,
		-sin, cos, ncy + sin*cx - cos*cy,
	}
	xdraw.CatmullRom.Transform(dst, s2d, img, b, xdraw.Over, nil)
	return dst
}
