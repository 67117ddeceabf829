package raster

import (
	"fmt"
	"image"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
)

// 203 DPI thermal heads place 8 dots per millimetre.
const DotsPerMM = 8.0

// PageSource supplies pages already rasterizable at an arbitrary pixel size.
type PageSource interface {
	PageDimensions(page int) (width, height int, err error)
	RenderPage(page, targetWidth, targetHeight int) (*image.RGBA, error)
}

type Rasterizer struct {
	// Supersample renders pages at a multiple of the target resolution and
	// downsamples with a quality filter. Naive 1x rendering produces visible
	// banding after dithering.
	Supersample int
}

func NewRasterizer(supersample int) *Rasterizer {
	if supersample < 1 {
		supersample = 1
	}
	return &Rasterizer{Supersample: supersample}
}

// TargetWidth converts physical paper width to the printable dot count.
func TargetWidth(paperWidthMM float64) int {
	return int(math.Round(paperWidthMM * DotsPerMM))
}

func (r *Rasterizer) RasterizePage(src PageSource, page int, paperWidthMM float64) (*image.RGBA, error) {
	nativeW, nativeH, err := src.PageDimensions(page)
	if err != nil {
		return nil, fmt.Errorf("failed to measure page %d: %w", page, err)
	}
	if nativeW <= 0 || nativeH <= 0 {
		return nil, fmt.Errorf("page %d has invalid dimensions %dx%d", page, nativeW, nativeH)
	}

	targetW := TargetWidth(paperWidthMM)
	scale := float64(targetW) / float64(nativeW)
	targetH := int(math.Round(float64(nativeH) * scale))
	if targetH < 1 {
		targetH = 1
	}

	rendered, err := src.RenderPage(page, targetW*r.Supersample, targetH*r.Supersample)
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", page, err)
	}

	if r.Supersample == 1 {
		return rendered, nil
	}

	out := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	draw.Draw(out, out.Bounds(), image.White, image.Point{}, draw.Src)
	xdraw.CatmullRom.Scale(out, out.Bounds(), rendered, rendered.Bounds(), xdraw.Over, nil)
	return out, nil
}
