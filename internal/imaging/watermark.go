package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	bannerLineHeight = 16
	bannerPadding    = 8
	bannerAlpha      = 160
)

// ApplyWatermark composites a semi-opaque banner carrying the given lines
// (driver identity, location, timestamp) across the bottom of the image at
// path. The file is rewritten through a temp file and rename so a failure
// mid-rewrite leaves the original intact. Callers treat errors as
// non-fatal: the unwatermarked image remains the referenced asset.
func ApplyWatermark(path string, lines []string) error {
	if len(lines) == 0 {
		return nil
	}

	src, err := imaging.Open(path)
	if err != nil {
		return fmt.Errorf("open image for watermark: %w", err)
	}

	canvas := imaging.Clone(src)
	bounds := canvas.Bounds()

	bannerHeight := len(lines)*bannerLineHeight + 2*bannerPadding
	if bannerHeight > bounds.Dy() {
		return fmt.Errorf("image too small for watermark banner")
	}

	bannerRect := image.Rect(bounds.Min.X, bounds.Max.Y-bannerHeight, bounds.Max.X, bounds.Max.Y)
	banner := image.NewUniform(color.NRGBA{A: bannerAlpha})
	draw.Draw(canvas, bannerRect, banner, image.Point{}, draw.Over)

	drawer := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(color.White),
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		drawer.Dot = fixed.P(
			bounds.Min.X+bannerPadding,
			bounds.Max.Y-bannerHeight+bannerPadding+(i+1)*bannerLineHeight-4,
		)
		drawer.DrawString(line)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".wm-*")
	if err != nil {
		return fmt.Errorf("create watermark temp file: %w", err)
	}
	tmpName := tmp.Name()

	if err := imaging.Encode(tmp, canvas, imaging.JPEG, imaging.JPEGQuality(startQuality)); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("encode watermarked image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close watermark temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace image with watermarked copy: %w", err)
	}

	return nil
}
