package pixel

import (
	"errors"
	"fmt"
)

// Size is the number of bytes a single record occupies on the wire.
const Size = 4

var ErrMisalignedLength = errors.New("payload length is not a multiple of 4")

// DecodeError is returned when a payload cannot be split into whole records.
type DecodeError struct {
	Length int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("misaligned pixel payload of %d bytes", e.Length)
}

func (e *DecodeError) Unwrap() error {
	return ErrMisalignedLength
}

// Pixel is the color of one logical pixel. The index names a logical pixel, not a physical LED.
type Pixel struct {
	Index uint8
	Red   uint8
	Green uint8
	Blue  uint8
}

// FromRGB builds a pixel from a 0xRRGGBB color.
func FromRGB(index uint8, rgb uint32) Pixel {
	return Pixel{
		Index: index,
		Red:   uint8(rgb >> 16),
		Green: uint8(rgb >> 8),
		Blue:  uint8(rgb),
	}
}

// RGB packs the color as 0xRRGGBB, the layout the strip driver expects.
func (p Pixel) RGB() uint32 {
	return uint32(p.Red)<<16 | uint32(p.Green)<<8 | uint32(p.Blue)
}

func (p Pixel) String() string {
	return fmt.Sprintf("%d #%06x", p.Index, p.RGB())
}

func (p Pixel) Encode() []byte {
	return p.AppendTo(make([]byte, 0, Size))
}

func (p Pixel) AppendTo(b []byte) []byte {
	return append(b, p.Index, p.Red, p.Green, p.Blue)
}

// EncodeBatch concatenates the records in send order.
func EncodeBatch(pixels []Pixel) []byte {
	b := make([]byte, 0, len(pixels)*Size)
	for _, p := range pixels {
		b = p.AppendTo(b)
	}
	return b
}

// Decode splits a payload into records in wire order. Index values are not validated.
func Decode(b []byte) ([]Pixel, error) {
	if len(b)%Size != 0 {
		return nil, &DecodeError{Length: len(b)}
	}

	pixels := make([]Pixel, len(b)/Size)
	for i := range pixels {
		off := i * Size
		pixels[i] = Pixel{
			Index: b[off],
			Red:   b[off+1],
			Green: b[off+2],
			Blue:  b[off+3],
		}
	}
	return pixels, nil
}
