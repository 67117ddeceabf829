package raster

import "image"

// ITU-R BT.601 luminance weights.
const (
	weightR = 0.299
	weightG = 0.587
	weightB = 0.114
)

func ToGrayscale(img *image.RGBA) *GrayBuffer {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	out := NewGrayBuffer(width, height)

	for y := 0; y < height; y++ {
		row := img.Pix[img.PixOffset(bounds.Min.X, bounds.Min.Y+y):]
		for x := 0; x < width; x++ {
			r := float32(row[x*4+0])
			g := float32(row[x*4+1])
			b := float32(row[x*4+2])
			out.Pix[y*width+x] = weightR*r + weightG*g + weightB*b
		}
	}

	return out
}

// AdjustContrastBrightness applies out = in*contrast + brightness per sample,
// clamping to [0,255] exactly once, after the transform. Contrast 1.0 and
// brightness 0 leave the buffer unchanged.
func AdjustContrastBrightness(g *GrayBuffer, contrast, brightness float32) *GrayBuffer {
	if contrast == 1.0 && brightness == 0 {
		return g
	}

	for i, v := range g.Pix {
		g.Pix[i] = clamp(v*contrast + brightness)
	}
	return g
}

func clamp(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
