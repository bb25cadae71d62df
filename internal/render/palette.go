package render

import (
	"image/color"
	"strconv"
)

// viridis stops, shared by the PNG orbit gradient and the HTML visual map.
var viridis = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// gradient returns n colors interpolated along viridis.
func gradient(n int) []color.Color {
	if n <= 0 {
		return nil
	}
	stops := make([]color.RGBA, len(viridis))
	for i, h := range viridis {
		stops[i] = hexColor(h)
	}
	colors := make([]color.Color, n)
	for i := range colors {
		pos := 0.0
		if n > 1 {
			pos = float64(i*(len(stops)-1)) / float64(n-1)
		}
		lo := int(pos)
		if lo >= len(stops)-1 {
			colors[i] = stops[len(stops)-1]
			continue
		}
		f := pos - float64(lo)
		a, b := stops[lo], stops[lo+1]
		colors[i] = color.RGBA{
			R: lerp8(a.R, b.R, f),
			G: lerp8(a.G, b.G, f),
			B: lerp8(a.B, b.B, f),
			A: 255,
		}
	}
	return colors
}

func lerp8(a, b uint8, f float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*f + 0.5)
}

func hexColor(h string) color.RGBA {
	v, _ := strconv.ParseUint(h[1:], 16, 32)
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}
