package pixel

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	p := Pixel{Index: 2, Red: 10, Green: 20, Blue: 30}
	assert.Equal(t, []byte{2, 10, 20, 30}, p.Encode())
}

func TestDecode(t *testing.T) {
	tt := []struct {
		name    string
		payload []byte
		want    []Pixel
	}{
		{
			"empty payload",
			[]byte{},
			[]Pixel{},
		},
		{
			"single record",
			[]byte{0, 255, 0, 0},
			[]Pixel{{Index: 0, Red: 255}},
		},
		{
			"batch keeps wire order",
			[]byte{7, 1, 2, 3, 3, 4, 5, 6, 7, 9, 9, 9},
			[]Pixel{
				{Index: 7, Red: 1, Green: 2, Blue: 3},
				{Index: 3, Red: 4, Green: 5, Blue: 6},
				{Index: 7, Red: 9, Green: 9, Blue: 9},
			},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Decode(tc.payload)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.payload, EncodeBatch(got))
		})
	}
}

func TestDecode_Misaligned(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5, 251} {
		_, err := Decode(make([]byte, n))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMisalignedLength))

		var decodeErr *DecodeError
		require.True(t, errors.As(err, &decodeErr))
		assert.Equal(t, n, decodeErr.Length)
	}
}

func TestRoundTrip(t *testing.T) {
	payload := make([]byte, 0, 256*Size)
	for i := 0; i < 256; i++ {
		payload = append(payload, byte(i), byte(255-i), byte(i*7), byte(i*13))
	}

	pixels, err := Decode(payload)
	require.NoError(t, err)
	require.Len(t, pixels, 256)

	var concatenated []byte
	for _, p := range pixels {
		concatenated = append(concatenated, p.Encode()...)
	}
	assert.Equal(t, payload, concatenated)
}

func TestRGB(t *testing.T) {
	p := FromRGB(4, 0x806040)
	assert.Equal(t, Pixel{Index: 4, Red: 0x80, Green: 0x60, Blue: 0x40}, p)
	assert.Equal(t, uint32(0x806040), p.RGB())
	assert.Equal(t, "4 #806040", p.String())
}
