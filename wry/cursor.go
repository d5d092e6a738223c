// Package wry implements the shared decoding machinery of the
// pointer-based CZ88-family database formats: a cursor over the record
// area with redirect handling, and a binary search over the packed,
// sorted index region.
package wry

import (
	"fmt"
	"strings"

	"github.com/whereip/whereip/geo"
)

// Redirect mode tags in the record area.
const (
	redirectModeFull    = 0x01
	redirectModePartial = 0x02
)

// trademark token embedded in many distributed database files
const trademarkToken = "CZ88.NET"

// Cursor reads location records from the record area of a database
// buffer. It keeps a single-slot undo register: SeekBack restores the
// position saved by the most recent read or seek, and only that one.
type Cursor struct {
	data []byte
	pos  int
	last int
}

// NewCursor returns a cursor over the given database buffer.
func NewCursor(data []byte) *Cursor {
	return &Cursor{data: data}
}

func (c *Cursor) seekAbs(offset int) {
	c.last = c.pos
	c.pos = offset
}

func (c *Cursor) seekBack() {
	c.pos = c.last
}

func (c *Cursor) readMode() (byte, error) {
	if c.pos < 0 || c.pos >= len(c.data) {
		return 0, fmt.Errorf("%w: mode byte at %d outside buffer of %d bytes", geo.ErrParse, c.pos, len(c.data))
	}
	mode := c.data[c.pos]
	c.last = c.pos
	c.pos++
	return mode, nil
}

func (c *Cursor) readOffset(follow bool) (uint32, error) {
	if c.pos < 0 || c.pos+3 > len(c.data) {
		return 0, fmt.Errorf("%w: offset field at %d outside buffer of %d bytes", geo.ErrParse, c.pos, len(c.data))
	}
	offset := GetUint24(c.data[c.pos:])
	c.last = c.pos
	c.pos += 3
	if follow {
		// The undo register must land after the offset field, not
		// before it, so a later SeekBack resumes with the next field.
		c.last = c.pos
		c.pos = int(offset)
	}
	return offset, nil
}

func (c *Cursor) readString(advance bool) ([]byte, error) {
	if c.pos < 0 || c.pos > len(c.data) {
		return nil, fmt.Errorf("%w: string at %d outside buffer of %d bytes", geo.ErrParse, c.pos, len(c.data))
	}
	start := c.pos
	end := start
	for end < len(c.data) && c.data[end] != 0 {
		end++
	}
	if advance {
		c.last = c.pos
		c.pos = end + 1
	}
	return c.data[start:end], nil
}

// Parse decodes the raw country and area strings of the location record
// at the given offset. A zero offset continues at the current position.
func (c *Cursor) Parse(offset uint32) (country, area []byte, err error) {
	if offset != 0 {
		c.seekAbs(int(offset))
	}

	mode, err := c.readMode()
	if err != nil {
		return nil, nil, err
	}
	switch mode {
	case redirectModeFull:
		// Full redirect: the whole record lives elsewhere.
		if _, err := c.readOffset(true); err != nil {
			return nil, nil, err
		}
		return c.Parse(0)

	case redirectModePartial:
		// Partial redirect: only the country string lives elsewhere,
		// the area follows the offset field in place.
		country, err = c.redirectedString()
		if err != nil {
			return nil, nil, err
		}
		area, err = c.readArea()
		if err != nil {
			return nil, nil, err
		}
		return country, area, nil

	default:
		// Direct storage: country and area strings in place.
		c.seekBack()
		country, err = c.readString(true)
		if err != nil {
			return nil, nil, err
		}
		area, err = c.readArea()
		if err != nil {
			return nil, nil, err
		}
		return country, area, nil
	}
}

func (c *Cursor) redirectedString() ([]byte, error) {
	if _, err := c.readOffset(true); err != nil {
		return nil, err
	}
	s, err := c.readString(false)
	if err != nil {
		return nil, err
	}
	c.seekBack()
	return s, nil
}

func (c *Cursor) readArea() ([]byte, error) {
	mode, err := c.readMode()
	if err != nil {
		return nil, err
	}
	if mode == redirectModeFull || mode == redirectModePartial {
		offset, err := c.readOffset(true)
		if err != nil {
			return nil, err
		}
		if offset == 0 {
			// Zero offset means "no area information".
			return nil, nil
		}
	} else {
		c.seekBack()
	}
	return c.readString(false)
}

// Clean strips the trademark token distributors embed in location
// strings, as well as surrounding whitespace.
func Clean(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, trademarkToken, ""))
}
