package button

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestButtonEvent_String(t *testing.T) {
	assert.Equal(t, "Button 0 was pressed", ButtonEvent{Button: 0, Pressed: true}.String())
	assert.Equal(t, "Button 2 was released", ButtonEvent{Button: 2}.String())
}
