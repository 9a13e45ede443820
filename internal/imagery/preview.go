package imagery

import (
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/rpggio/triplet-annotator/internal/domain/annotation"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// Renderer draws labels on top of an image.
type Renderer struct {
	face      font.Face
	lineWidth float64
}

// NewRenderer parses the embedded Go font once for all previews.
func NewRenderer(fontSize float64) (*Renderer, error) {
	if fontSize <= 0 {
		fontSize = 14
	}
	ttf, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	face := truetype.NewFace(ttf, &truetype.Options{
		Size:    fontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	return &Renderer{face: face, lineWidth: 2}, nil
}

// Render returns a copy of img with every label's box outlined in its class
// colour and captioned with the class name or, if unclassified, its temp id.
func (r *Renderer) Render(img image.Image, labels []annotation.Label) image.Image {
	dc := gg.NewContextForImage(img)
	dc.SetFontFace(r.face)
	dc.SetLineWidth(r.lineWidth)

	origin := img.Bounds().Min
	for _, l := range labels {
		xMin, yMin, xMax, yMax := l.Box.Corners()
		if xMax < xMin {
			xMin, xMax = xMax, xMin
		}
		if yMax < yMin {
			yMin, yMax = yMax, yMin
		}
		xMin -= float64(origin.X)
		xMax -= float64(origin.X)
		yMin -= float64(origin.Y)
		yMax -= float64(origin.Y)

		var c color.Color = UnclassifiedColor
		caption := l.TempID
		if l.Classified() {
			c = ClassColor(l.Class.ID)
			caption = fmt.Sprintf("%s %s", l.Key(), l.Class.Name)
		}

		dc.SetColor(c)
		dc.DrawRectangle(xMin, yMin, xMax-xMin, yMax-yMin)
		dc.Stroke()

		if caption == "" {
			continue
		}
		w, h := dc.MeasureString(caption)
		top := yMin - h - 4
		if top < 0 {
			top = yMin
		}
		dc.DrawRectangle(xMin, top, w+6, h+4)
		dc.Fill()
		dc.SetColor(color.White)
		dc.DrawStringAnchored(caption, xMin+3, top+2, 0, 1)
	}

	return dc.Image()
}
