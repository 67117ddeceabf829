package dither

import (
	"fmt"

	"github.com/emirhncann/portable-thermal-printer/internal/raster"
)

type Mode string

const (
	ModeThreshold      Mode = "threshold"
	ModeFloydSteinberg Mode = "floyd_steinberg"
	ModeAtkinson       Mode = "atkinson"
	ModeOrdered        Mode = "ordered"
)

// Ditherer reduces a grayscale buffer to a strictly binary one. The input
// buffer is consumed: error-diffusion modes mutate it in place.
type Ditherer interface {
	Dither(g *raster.GrayBuffer, threshold int) *raster.BitBuffer
}

func New(mode Mode) (Ditherer, error) {
	switch mode {
	case ModeThreshold:
		return thresholdDitherer{}, nil
	case ModeFloydSteinberg:
		return floydSteinbergDitherer{}, nil
	case ModeAtkinson:
		return atkinsonDitherer{}, nil
	case ModeOrdered:
		return orderedDitherer{}, nil
	default:
		return nil, fmt.Errorf("unknown dither mode: %s", mode)
	}
}

func ValidMode(mode Mode) bool {
	switch mode {
	case ModeThreshold, ModeFloydSteinberg, ModeAtkinson, ModeOrdered:
		return true
	}
	return false
}

// quantize picks the nearest binary level using the shared decision rule:
// anything below the threshold goes black.
func quantize(v float32, threshold int) uint8 {
	if v < float32(threshold) {
		return 0
	}
	return 255
}

type thresholdDitherer struct{}

func (thresholdDitherer) Dither(g *raster.GrayBuffer, threshold int) *raster.BitBuffer {
	out := raster.NewBitBuffer(g.Width, g.Height)
	for i, v := range g.Pix {
		out.Pix[i] = quantize(v, threshold)
	}
	return out
}

type floydSteinbergDitherer struct{}

// Floyd-Steinberg error diffusion. Raster-order scan; quantization error is
// added in place to unvisited neighbours with weights 7/16 right, 3/16
// below-left, 5/16 below, 1/16 below-right. Neighbours outside the buffer
// are skipped without renormalizing the remaining weights.
func (floydSteinbergDitherer) Dither(g *raster.GrayBuffer, threshold int) *raster.BitBuffer {
	out := raster.NewBitBuffer(g.Width, g.Height)
	w, h := g.Width, g.Height

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			old := g.Pix[y*w+x]
			newVal := quantize(old, threshold)
			out.Pix[y*w+x] = newVal
			err := old - float32(newVal)

			if x+1 < w {
				g.Pix[y*w+x+1] += err * 7 / 16
			}
			if y+1 < h {
				if x-1 >= 0 {
					g.Pix[(y+1)*w+x-1] += err * 3 / 16
				}
				g.Pix[(y+1)*w+x] += err * 5 / 16
				if x+1 < w {
					g.Pix[(y+1)*w+x+1] += err * 1 / 16
				}
			}
		}
	}

	return out
}

type atkinsonDitherer struct{}

// Atkinson diffusion spreads one eighth of the error to each of six
// neighbours, discarding the remaining 2/8. The lost error is what keeps
// highlights from filling in.
func (atkinsonDitherer) Dither(g *raster.GrayBuffer, threshold int) *raster.BitBuffer {
	out := raster.NewBitBuffer(g.Width, g.Height)
	w, h := g.Width, g.Height

	offsets := [6][2]int{
		{1, 0}, {2, 0},
		{-1, 1}, {0, 1}, {1, 1},
		{0, 2},
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			old := g.Pix[y*w+x]
			newVal := quantize(old, threshold)
			out.Pix[y*w+x] = newVal
			err := (old - float32(newVal)) / 8

			for _, off := range offsets {
				nx, ny := x+off[0], y+off[1]
				if nx < 0 || nx >= w || ny >= h {
					continue
				}
				g.Pix[ny*w+nx] += err
			}
		}
	}

	return out
}

type orderedDitherer struct{}

// 4x4 Bayer threshold matrix.
var bayerMatrix = [4][4]float32{
	{0, 8, 2, 10},
	{12, 4, 14, 6},
	{3, 11, 1, 9},
	{15, 7, 13, 5},
}

// Ordered dithering is purely local: the decision for a pixel depends only
// on its value and (x mod 4, y mod 4), never on scan history.
func (orderedDitherer) Dither(g *raster.GrayBuffer, threshold int) *raster.BitBuffer {
	out := raster.NewBitBuffer(g.Width, g.Height)
	w, h := g.Width, g.Height
	cutoff := float32(threshold) + 128

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			bayer := bayerMatrix[y%4][x%4] * 16
			if g.Pix[y*w+x]+bayer < cutoff {
				out.Pix[y*w+x] = 0
			} else {
				out.Pix[y*w+x] = 255
			}
		}
	}

	return out
}
