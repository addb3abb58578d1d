package render

import (
	"fmt"
	"math"
)

// startHue is the hue of the first circle.
const startHue = 0.86

// CircleColor returns the colour of the circle at index in its game as
// #rrggbb. Hues advance by the golden ratio so neighbouring circles get
// distinct colours; every third step the value advances too.
func CircleColor(index int) string {
	phi := 1 / ((1 + math.Sqrt(5)) / 2)
	h, v := startHue, 1.0
	for c := 1; c <= index; c++ {
		h = math.Mod(h+phi, 1)
		if c%3 == 0 {
			v = math.Mod(v+phi, 1)
		}
	}
	r, g, b := hsvToRGB(h, 1, v)
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func hsvToRGB(h, s, v float64) (uint8, uint8, uint8) {
	i := int(h * 6)
	f := h*6 - float64(i)
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))

	var r, g, b float64
	switch i % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}
	return uint8(r * 255), uint8(g * 255), uint8(b * 255)
}
