// Package ledmap spreads logical pixels across the physical LEDs of a strip.
package ledmap

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrZeroPixels    = errors.New("logical pixel count must be at least 1")
	ErrNegativeCount = errors.New("pixel and LED counts cannot be negative")
	ErrIndexOverflow = errors.New("logical pixel indices do not fit in 8 bits")
)

// Map holds, for each physical LED position, the logical pixel index it displays.
type Map struct {
	entries []uint8
	runs    []int
}

// Build lays out the logical pixels base..base+logical-1 contiguously along the strip. Every pixel
// gets physical/logical LEDs and the first physical%logical pixels get one extra.
func Build(logical, physical int, base uint8) (Map, error) {
	if logical == 0 {
		return Map{}, ErrZeroPixels
	}
	if logical < 0 || physical < 0 {
		return Map{}, fmt.Errorf("%w: logical=%d physical=%d", ErrNegativeCount, logical, physical)
	}
	if int(base)+logical-1 > math.MaxUint8 {
		return Map{}, fmt.Errorf("%w: base %d with %d pixels", ErrIndexOverflow, base, logical)
	}

	group := physical / logical
	remainder := physical % logical

	m := Map{
		entries: make([]uint8, 0, physical),
		runs:    make([]int, logical),
	}
	for k := 0; k < logical; k++ {
		size := group
		if k < remainder {
			size++
		}
		m.runs[k] = size
		for i := 0; i < size; i++ {
			m.entries = append(m.entries, base+uint8(k))
		}
	}
	return m, nil
}

// Len is the number of physical LEDs covered by the map.
func (m Map) Len() int {
	return len(m.entries)
}

func (m Map) At(position int) (uint8, bool) {
	if position < 0 || position >= len(m.entries) {
		return 0, false
	}
	return m.entries[position], true
}

func (m Map) Entries() []uint8 {
	out := make([]uint8, len(m.entries))
	copy(out, m.entries)
	return out
}

// Runs returns how many LEDs each logical pixel received, in logical order. A zero means the pixel
// is mapped but not visible.
func (m Map) Runs() []int {
	out := make([]int, len(m.runs))
	copy(out, m.runs)
	return out
}
