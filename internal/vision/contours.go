// internal/vision/contours.go
package vision

import (
	"image"
	"math"
)

// findContours labels the 8-connected regions of the mask and returns the
// traced outer boundary of every region at least minArea pixels big.
func findContours(m *binaryMask, minArea int) [][]image.Point {
	labels := make([]int, m.w*m.h)
	next := 0
	var contours [][]image.Point

	for y := 0; y < m.h; y++ {
		for x := 0; x < m.w; x++ {
			if !m.at(x, y) || labels[y*m.w+x] != 0 {
				continue
			}
			next++
			label := next
			start := image.Pt(x, y)
			area := floodFill(m, labels, start, label)
			if area <= minArea {
				continue
			}
			region := func(p image.Point) bool {
				if p.X < 0 || p.Y < 0 || p.X >= m.w || p.Y >= m.h {
					return false
				}
				return labels[p.Y*m.w+p.X] == label
			}
			contours = append(contours, traceBoundary(region, start))
		}
	}
	return contours
}

// floodFill labels the 8-connected component containing start and returns its
// pixel count.
func floodFill(m *binaryMask, labels []int, start image.Point, label int) int {
	stack := []image.Point{start}
	labels[start.Y*m.w+start.X] = label
	count := 0
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		count++
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				nx, ny := p.X+dx, p.Y+dy
				if m.at(nx, ny) && labels[ny*m.w+nx] == 0 {
					labels[ny*m.w+nx] = label
					stack = append(stack, image.Pt(nx, ny))
				}
			}
		}
	}
	return count
}

// mooreNeighbors enumerates the 8-neighborhood clockwise (screen orientation,
// y grows downward) starting west.
var mooreNeighbors = [8]image.Point{
	{X: -1, Y: 0},  // W
	{X: -1, Y: -1}, // NW
	{X: 0, Y: -1},  // N
	{X: 1, Y: -1},  // NE
	{X: 1, Y: 0},   // E
	{X: 1, Y: 1},   // SE
	{X: 0, Y: 1},   // S
	{X: -1, Y: 1},  // SW
}

// traceBoundary walks the outer boundary of a region with Moore-neighbor
// tracing. start must be the region's topmost-leftmost pixel so the west
// neighbor is guaranteed background. The walk stops when the start pixel is
// re-entered from the initial backtrack position (Jacob's criterion).
func traceBoundary(region func(image.Point) bool, start image.Point) []image.Point {
	contour := []image.Point{start}

	b0 := start
	c0 := start.Add(mooreNeighbors[0]) // west, background by construction
	b, c := b0, c0

	limit := 0
	for {
		// Scan the neighborhood of b clockwise beginning at c.
		from := neighborIndex(c.Sub(b))
		var nb image.Point
		nc := c
		found := false
		for i := 1; i <= 8; i++ {
			dir := (from + i) % 8
			n := b.Add(mooreNeighbors[dir])
			if region(n) {
				nb = n
				found = true
				break
			}
			nc = n
		}
		if !found {
			return contour // single isolated pixel
		}
		b, c = nb, nc
		if b == b0 && c == c0 {
			return contour
		}
		contour = append(contour, b)

		limit++
		if limit > 100000 {
			return contour
		}
	}
}

func neighborIndex(d image.Point) int {
	for i, n := range mooreNeighbors {
		if n == d {
			return i
		}
	}
	return 0
}

// classifyContour labels a closed boundary, or returns "" for anything that
// matches no known shape.
func classifyContour(contour []image.Point) string {
	per := perimeter(contour)
	if per == 0 {
		return ""
	}
	approx := approxPoly(contour, 0.04*per)

	switch {
	case len(approx) == 3:
		return ShapeTriangle
	case len(approx) == 4:
		w, h := boundingRect(approx)
		aspect := float64(w) / float64(h)
		if aspect >= 0.90 && aspect <= 1.10 {
			return ShapeSquare
		}
		return ShapeRectangle
	case len(approx) > 4:
		area := contourArea(contour)
		circularity := 4 * math.Pi * area / (per * per)
		if circularity > 0.7 {
			return ShapeCircle
		}
	}
	return ""
}
