package imagery

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"math"

	"github.com/disintegration/imaging"
	"github.com/rpggio/triplet-annotator/internal/domain/annotation"
)

// Region converts a box to a pixel rectangle clipped to bounds.
func Region(box annotation.Box, bounds image.Rectangle) image.Rectangle {
	xMin, yMin, xMax, yMax := box.Corners()
	rect := image.Rect(
		int(math.Floor(xMin)), int(math.Floor(yMin)),
		int(math.Ceil(xMax)), int(math.Ceil(yMax)),
	).Add(bounds.Min)
	return rect.Intersect(bounds)
}

// MaxCropPixels bounds the area of a scaled crop.
const MaxCropPixels = 4096 * 4096

// Crop cuts the area under box out of img and optionally scales it.
// Boxes are in image pixel coordinates, and the part of the box outside the
// image is dropped.
func Crop(img image.Image, box annotation.Box, scale float64) (image.Image, error) {
	if scale <= 0 || math.IsInf(scale, 0) || math.IsNaN(scale) {
		return nil, ErrInvalidScale
	}
	rect := Region(box, img.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("%w: box (%.0f,%.0f %.0fx%.0f) outside image %v",
			ErrEmptyRegion, box.CenterX, box.CenterY, box.Width, box.Height, img.Bounds())
	}

	cropped := imaging.Crop(img, rect)
	if scale != 1.0 {
		fw := math.Round(float64(cropped.Bounds().Dx()) * scale)
		fh := math.Round(float64(cropped.Bounds().Dy()) * scale)
		if fw*fh > MaxCropPixels {
			return nil, fmt.Errorf("%w: scaled to %.0fx%.0f, over %d pixels", ErrInvalidScale, fw, fh, MaxCropPixels)
		}
		w, h := int(fw), int(fh)
		if w < 1 || h < 1 {
			return nil, fmt.Errorf("%w: scaled to %dx%d", ErrEmptyRegion, w, h)
		}
		cropped = imaging.Resize(cropped, w, h, imaging.Lanczos)
	}
	return cropped, nil
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return nil
}
