// internal/vision/colors.go
package vision

// HSV is a pixel in OpenCV-style HSV space: hue 0-179, saturation and value
// 0-255. The color ranges below were tuned against real marker footage, so
// the scale is kept rather than normalized.
type HSV struct {
	H, S, V uint8
}

// ColorRange is an inclusive lower/upper HSV bound for masking.
type ColorRange struct {
	Lower, Upper HSV
}

// Contains reports whether the pixel falls inside the range.
func (r ColorRange) Contains(p HSV) bool {
	return p.H >= r.Lower.H && p.H <= r.Upper.H &&
		p.S >= r.Lower.S && p.S <= r.Upper.S &&
		p.V >= r.Lower.V && p.V <= r.Upper.V
}

// ColorRanges maps the known color-filter names to their mask ranges. Red
// wraps around the hue axis, hence its two entries.
var ColorRanges = map[string][]ColorRange{
	"red": {
		{Lower: HSV{0, 100, 100}, Upper: HSV{10, 255, 255}},
		{Lower: HSV{160, 100, 100}, Upper: HSV{179, 255, 255}},
	},
	"blue":   {{Lower: HSV{100, 150, 0}, Upper: HSV{140, 255, 255}}},
	"green":  {{Lower: HSV{40, 70, 70}, Upper: HSV{80, 255, 255}}},
	"yellow": {{Lower: HSV{20, 100, 100}, Upper: HSV{30, 255, 255}}},
	"orange": {{Lower: HSV{10, 100, 100}, Upper: HSV{20, 255, 255}}},
	"purple": {{Lower: HSV{140, 100, 100}, Upper: HSV{160, 255, 255}}},
}

// RangesFor returns the mask ranges for a color-filter name, reporting
// whether the name is known.
func RangesFor(color string) ([]ColorRange, bool) {
	ranges, ok := ColorRanges[color]
	return ranges, ok
}

// RGBToHSV converts 8-bit RGB to OpenCV-scale HSV.
func RGBToHSV(r, g, b uint8) HSV {
	maxC := max(r, max(g, b))
	minC := min(r, min(g, b))
	v := maxC
	delta := int(maxC) - int(minC)

	var s uint8
	if maxC > 0 {
		s = uint8(255 * delta / int(maxC))
	}

	var hue float64
	if delta > 0 {
		switch maxC {
		case r:
			hue = 60 * float64(int(g)-int(b)) / float64(delta)
		case g:
			hue = 120 + 60*float64(int(b)-int(r))/float64(delta)
		default:
			hue = 240 + 60*float64(int(r)-int(g))/float64(delta)
		}
		if hue < 0 {
			hue += 360
		}
	}
	return HSV{H: uint8(hue / 2), S: s, V: v}
}
