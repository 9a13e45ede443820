package imagery

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// goldenAngle spreads consecutive class ids around the hue circle.
const goldenAngle = 137.508

// UnclassifiedColor marks boxes that have no class yet.
var UnclassifiedColor = colorful.Color{R: 0.6, G: 0.6, B: 0.6}

// ClassColor returns a stable, distinct colour for a class id.
func ClassColor(id int) colorful.Color {
	hue := math.Mod(float64(id)*goldenAngle, 360)
	return colorful.Hsv(hue, 0.75, 0.95).Clamped()
}

// ClassHex is ClassColor formatted as #rrggbb.
func ClassHex(id int) string {
	return ClassColor(id).Hex()
}
