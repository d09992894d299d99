// Package console reads pixel colors typed on a serial line.
//
// A pixel is either four decimal numbers, "index red green blue", or an index followed by a hex
// color, "index #rrggbb". A line holds one or more pixels separated by ';', which are sent as one
// batch. Blank lines and lines starting with '#' are skipped.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/callebjorkell/pixel-mesh/internal/pixel"
	"github.com/callebjorkell/pixel-mesh/internal/transport"
	"github.com/lucasb-eyer/go-colorful"
	log "github.com/sirupsen/logrus"
	"github.com/tarm/serial"
)

// MaxBatch is the number of pixels that fit in a single transmission.
const MaxBatch = transport.MaxFrame / pixel.Size

var ErrSyntax = errors.New("expected \"index red green blue\" or \"index #rrggbb\"")

// Open opens a serial device for reading.
func Open(device string, baud int) (io.ReadCloser, error) {
	log.Infof("Opening serial console %s at %d baud", device, baud)
	port, err := serial.OpenPort(&serial.Config{Name: device, Baud: baud})
	if err != nil {
		return nil, fmt.Errorf("unable to open %s: %w", device, err)
	}
	return port, nil
}

func Parse(line string) (pixel.Pixel, error) {
	fields := strings.Fields(line)
	switch len(fields) {
	case 2:
		index, err := parseByte(fields[0])
		if err != nil {
			return pixel.Pixel{}, err
		}
		c, err := colorful.Hex(fields[1])
		if err != nil {
			return pixel.Pixel{}, fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		r, g, b := c.RGB255()
		return pixel.Pixel{Index: index, Red: r, Green: g, Blue: b}, nil
	case 4:
		var values [4]uint8
		for i, f := range fields {
			v, err := parseByte(f)
			if err != nil {
				return pixel.Pixel{}, err
			}
			values[i] = v
		}
		return pixel.Pixel{Index: values[0], Red: values[1], Green: values[2], Blue: values[3]}, nil
	}
	return pixel.Pixel{}, ErrSyntax
}

// ParseLine parses every pixel on a line, in order.
func ParseLine(line string) ([]pixel.Pixel, error) {
	parts := strings.Split(line, ";")
	if len(parts) > MaxBatch {
		return nil, fmt.Errorf("%w: %d pixels on one line, at most %d fit in a batch", ErrSyntax, len(parts), MaxBatch)
	}

	pixels := make([]pixel.Pixel, 0, len(parts))
	for _, part := range parts {
		p, err := Parse(part)
		if err != nil {
			return nil, err
		}
		pixels = append(pixels, p)
	}
	return pixels, nil
}

func parseByte(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a value between 0 and 255", ErrSyntax, s)
	}
	return uint8(v), nil
}

// Scan parses lines from r and hands the pixels of every valid line to handle. Malformed lines are
// logged and skipped; an error from handle stops the scan.
func Scan(ctx context.Context, r io.Reader, handle func([]pixel.Pixel) error) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		pixels, err := ParseLine(line)
		if err != nil {
			log.Warnf("Invalid pixel data %q: %v", line, err)
			continue
		}
		if err := handle(pixels); err != nil {
			return err
		}
	}
	return scanner.Err()
}
