// Packs binary pixel data into the 1bpp row format carried by the BITMAP
// directive. TSPL bitmap data is MSB-first; a 0 bit prints black and a 1
// bit leaves the dot unburned.

package tspl

import (
	"fmt"

	"github.com/emirhncann/portable-thermal-printer/internal/raster"
)

const bitsPerWord = 8

type PackedBitmap struct {
	data          []byte
	width, height int
	stride        int
}

func (b *PackedBitmap) Width() int {
	return b.width
}

func (b *PackedBitmap) Height() int {
	return b.height
}

// Stride is the packed row length in bytes.
func (b *PackedBitmap) Stride() int {
	return b.stride
}

func (b *PackedBitmap) Data() []byte {
	return b.data
}

// GetBit returns 1 where the dot prints black.
func (b *PackedBitmap) GetBit(x, y int) byte {
	word := b.data[y*b.stride+x/bitsPerWord]
	return ^(word >> (bitsPerWord - 1 - x%bitsPerWord)) & 1
}

func (b *PackedBitmap) String() string {
	return fmt.Sprintf("PackedBitmap(%d,%d)", b.width, b.height)
}

// Pack converts a binary buffer (samples 0 or 255) into packed rows. Padding
// bits at the end of a row are set to 1 so they stay white on paper.
func Pack(src *raster.BitBuffer) *PackedBitmap {
	width, height := src.Width, src.Height
	stride := (width + bitsPerWord - 1) / bitsPerWord
	data := make([]byte, stride*height)

	for y := 0; y < height; y++ {
		for bx := 0; bx < stride; bx++ {
			var word byte = 0
			for bit := 0; bit < bitsPerWord; bit++ {
				x := bx*bitsPerWord + bit
				if x >= width || src.Pix[y*width+x] != 0 {
					word |= 1 << (bitsPerWord - 1 - bit)
				}
			}
			data[y*stride+bx] = word
		}
	}

	return &PackedBitmap{
		data:   data,
		width:  width,
		height: height,
		stride: stride,
	}
}
