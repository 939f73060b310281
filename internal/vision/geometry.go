// internal/vision/geometry.go
package vision

import (
	"image"
	"math"
)

// perimeter is the arc length of the closed contour, including the edge back
// to the first point.
func perimeter(contour []image.Point) float64 {
	if len(contour) < 2 {
		return 0
	}
	var sum float64
	for i := range contour {
		a := contour[i]
		b := contour[(i+1)%len(contour)]
		sum += math.Hypot(float64(b.X-a.X), float64(b.Y-a.Y))
	}
	return sum
}

// contourArea is the absolute shoelace area of the closed contour.
func contourArea(contour []image.Point) float64 {
	if len(contour) < 3 {
		return 0
	}
	var sum float64
	for i := range contour {
		a := contour[i]
		b := contour[(i+1)%len(contour)]
		sum += float64(a.X)*float64(b.Y) - float64(b.X)*float64(a.Y)
	}
	return math.Abs(sum) / 2
}

// boundingRect returns the inclusive pixel bounding box of the points.
func boundingRect(pts []image.Point) (w, h int) {
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := pts[0].X, pts[0].Y
	for _, p := range pts[1:] {
		minX = min(minX, p.X)
		minY = min(minY, p.Y)
		maxX = max(maxX, p.X)
		maxY = max(maxY, p.Y)
	}
	return maxX - minX + 1, maxY - minY + 1
}

// approxPoly reduces a closed contour to its dominant vertices with the
// Douglas-Peucker algorithm: points farther than epsilon from the current
// chord survive. The closed curve is split at its two most distant points so
// each half can be simplified as an open chain.
func approxPoly(contour []image.Point, epsilon float64) []image.Point {
	if len(contour) < 3 {
		return contour
	}

	// Split at the point farthest from the starting point.
	far := 0
	var farDist float64
	for i, p := range contour {
		d := math.Hypot(float64(p.X-contour[0].X), float64(p.Y-contour[0].Y))
		if d > farDist {
			farDist = d
			far = i
		}
	}

	back := make([]image.Point, 0, len(contour)-far+1)
	back = append(back, contour[far:]...)
	back = append(back, contour[0])

	first := douglasPeucker(contour[:far+1], epsilon)
	second := douglasPeucker(back, epsilon)

	// Chain endpoints overlap; drop them when merging.
	out := make([]image.Point, 0, len(first)+len(second)-2)
	out = append(out, first...)
	if len(second) > 2 {
		out = append(out, second[1:len(second)-1]...)
	}
	return out
}

func douglasPeucker(pts []image.Point, epsilon float64) []image.Point {
	if len(pts) < 3 {
		return pts
	}
	idx, maxDist := 0, 0.0
	a, b := pts[0], pts[len(pts)-1]
	for i := 1; i < len(pts)-1; i++ {
		if d := pointSegmentDist(pts[i], a, b); d > maxDist {
			maxDist = d
			idx = i
		}
	}
	if maxDist <= epsilon {
		return []image.Point{a, b}
	}
	left := douglasPeucker(pts[:idx+1], epsilon)
	right := douglasPeucker(pts[idx:], epsilon)
	out := make([]image.Point, 0, len(left)+len(right)-1)
	out = append(out, left[:len(left)-1]...)
	out = append(out, right...)
	return out
}

func pointSegmentDist(p, a, b image.Point) float64 {
	ax, ay := float64(a.X), float64(a.Y)
	bx, by := float64(b.X), float64(b.Y)
	px, py := float64(p.X), float64(p.Y)

	dx, dy := bx-ax, by-ay
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(px-ax, py-ay)
	}
	t := ((px-ax)*dx + (py-ay)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(px-(ax+t*dx), py-(ay+t*dy))
}
