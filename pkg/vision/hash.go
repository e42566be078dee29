package vision

import (
	"encoding/binary"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// hashSize is the side length of the difference matrix; the resize target
// is hashSize+1 columns by hashSize rows
const hashSize = 8

// Hash computes the 8-byte perceptual identity of an image: the picture is
// reduced to luminance, scaled to a 9x8 grid with a bilinear filter and
// turned into a left-to-right gradient-sign matrix. Bits are flattened
// row-major, LSB first, and encoded little-endian.
func Hash(img image.Image) []byte {
	small := image.NewGray(image.Rect(0, 0, hashSize+1, hashSize))
	draw.BiLinear.Scale(small, small.Bounds(), toLuminance(img), img.Bounds(), draw.Src, nil)

	var bits uint64
	i := 0
	for r := 0; r < hashSize; r++ {
		for c := 0; c < hashSize; c++ {
			if small.GrayAt(c+1, r).Y > small.GrayAt(c, r).Y {
				bits |= 1 << i
			}
			i++
		}
	}

	out := make([]byte, hashSize)
	binary.LittleEndian.PutUint64(out, bits)
	return out
}

// toLuminance reduces an image to a single luminance channel. Alpha is
// ignored, not composited: a fully transparent picture still hashes to the
// luminance of its color channels, which may legitimately collapse to
// identity 0.
func toLuminance(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}

	b := img.Bounds()
	gray := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			if a > 0 && a < 0xffff {
				// undo alpha pre-multiplication to get raw color values
				r = r * 0xffff / a
				g = g * 0xffff / a
				bl = bl * 0xffff / a
			}
			luma := (299*r + 587*g + 114*bl) / 1000
			gray.SetGray(x, y, color.Gray{Y: uint8(luma >> 8)})
		}
	}
	return gray
}
