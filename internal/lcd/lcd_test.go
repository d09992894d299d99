package lcd

import (
	"testing"

	"github.com/callebjorkell/pixel-mesh/internal/pixel"
	"github.com/stretchr/testify/assert"
)

func TestFit(t *testing.T) {
	tt := []struct {
		msg  string
		want string
	}{
		{"", "                "},
		{"Sent", "Sent            "},
		{"exactly sixteen!", "exactly sixteen!"},
		{"this line is far too long", "this line is far"},
		{"fade→black", "fade?black      "},
		{"tab\there", "tab?here        "},
	}

	for _, tc := range tt {
		t.Run(tc.msg, func(t *testing.T) {
			got := fit(tc.msg)
			assert.Equal(t, tc.want, got)
			assert.Len(t, got, lineWidth)
		})
	}
}

func TestPrintLine(t *testing.T) {
	Reset()
	assert.Equal(t, "  pixel-mesh    ", Text(Line1))
	assert.Equal(t, "                ", Text(Line2))

	PrintLine(Line2, "Sent "+PixelText(pixel.Pixel{Index: 3, Red: 255, Green: 128}))
	assert.Equal(t, "Sent   3 #ff8000", Text(Line2))

	Clear(Line2)
	assert.Equal(t, "                ", Text(Line2))
}

func TestLineString(t *testing.T) {
	assert.Equal(t, "L1", Line1.String())
	assert.Equal(t, "L2", Line2.String())
	assert.Equal(t, "N/A", Line(0).String())
}
