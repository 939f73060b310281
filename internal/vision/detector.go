// internal/vision/detector.go
package vision

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"strings"

	_ "image/jpeg" // camera frames arrive as JPEG or PNG
	_ "image/png"
)

// ErrImageDecode marks an unreadable camera frame. Callers treat it as a
// missed attempt, not a fault.
var ErrImageDecode = errors.New("image decode failed")

// Shape labels the recognizer can emit.
const (
	ShapeTriangle  = "triangle"
	ShapeSquare    = "square"
	ShapeRectangle = "rectangle"
	ShapeCircle    = "circle"
)

// Recognizer is the shape-recognition collaborator: a camera frame plus a set
// of color-range bounds in, a list of detected shape labels out.
type Recognizer interface {
	Detect(imageBase64 string, ranges []ColorRange) ([]string, error)
}

// Detector is the built-in Recognizer. It masks the frame with the given HSV
// ranges, extracts connected regions, traces their boundaries and classifies
// each by polygon approximation:
//
//	3 vertices            -> triangle
//	4 vertices            -> square if the bounding box is near 1:1, else rectangle
//	more than 4 vertices  -> circle if 4*pi*area/perimeter^2 > 0.7, else discarded
type Detector struct {
	// MinArea discards contours smaller than this many pixels.
	MinArea int
}

// NewDetector returns a detector with the production minimum contour area.
func NewDetector() *Detector {
	return &Detector{MinArea: 100}
}

// Detect decodes the base64 frame and returns the shapes found inside the
// masked regions. A frame that cannot be decoded yields ErrImageDecode.
func (d *Detector) Detect(imageBase64 string, ranges []ColorRange) ([]string, error) {
	img, err := decodeFrame(imageBase64)
	if err != nil {
		return nil, err
	}

	mask := buildMask(img, ranges)
	var shapes []string
	for _, contour := range findContours(mask, d.MinArea) {
		if shape := classifyContour(contour); shape != "" {
			shapes = append(shapes, shape)
		}
	}
	return shapes, nil
}

func decodeFrame(imageBase64 string) (image.Image, error) {
	// Browsers commonly send data URLs; strip the header if present.
	if idx := strings.Index(imageBase64, ","); idx != -1 && strings.HasPrefix(imageBase64, "data:") {
		imageBase64 = imageBase64[idx+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(imageBase64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	return img, nil
}

// buildMask marks every pixel that falls inside any of the color ranges.
func buildMask(img image.Image, ranges []ColorRange) *binaryMask {
	bounds := img.Bounds()
	m := newBinaryMask(bounds.Dx(), bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			hsv := RGBToHSV(uint8(r>>8), uint8(g>>8), uint8(b>>8))
			for _, cr := range ranges {
				if cr.Contains(hsv) {
					m.set(x-bounds.Min.X, y-bounds.Min.Y)
					break
				}
			}
		}
	}
	return m
}

type binaryMask struct {
	w, h int
	bits []bool
}

func newBinaryMask(w, h int) *binaryMask {
	return &binaryMask{w: w, h: h, bits: make([]bool, w*h)}
}

func (m *binaryMask) set(x, y int) { m.bits[y*m.w+x] = true }

func (m *binaryMask) at(x, y int) bool {
	if x < 0 || y < 0 || x >= m.w || y >= m.h {
		return false
	}
	return m.bits[y*m.w+x]
}
