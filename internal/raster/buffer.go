package raster

// GrayBuffer holds one grayscale sample per pixel. Samples are float32 so
// that error-diffusion dithering can push values outside [0,255] while a
// page is being processed.
type GrayBuffer struct {
	Width  int
	Height int
	Pix    []float32
}

func NewGrayBuffer(width, height int) *GrayBuffer {
	return &GrayBuffer{
		Width:  width,
		Height: height,
		Pix:    make([]float32, width*height),
	}
}

func (g *GrayBuffer) At(x, y int) float32 {
	return g.Pix[y*g.Width+x]
}

func (g *GrayBuffer) Set(x, y int, v float32) {
	g.Pix[y*g.Width+x] = v
}

// BitBuffer holds a strictly binary image: every sample is 0 (black) or
// 255 (white).
type BitBuffer struct {
	Width  int
	Height int
	Pix    []uint8
}

func NewBitBuffer(width, height int) *BitBuffer {
	return &BitBuffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height),
	}
}

func (b *BitBuffer) At(x, y int) uint8 {
	return b.Pix[y*b.Width+x]
}

func (b *BitBuffer) Set(x, y int, v uint8) {
	b.Pix[y*b.Width+x] = v
}
