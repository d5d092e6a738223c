package wry

import (
	"fmt"

	"github.com/whereip/whereip/geo"
)

// Index describes the packed, sorted index region of a database buffer.
// Entries are fixed-width: a little-endian start key followed by a
// little-endian record offset. Start and End are byte positions of the
// first and last entry.
type Index struct {
	Data []byte

	Start uint64
	End   uint64

	// KeyWidth is the number of key bytes compared (4 or 8).
	KeyWidth int
	// OffsetWidth is the number of offset bytes following the key.
	OffsetWidth int
}

// Stride returns the entry width in bytes.
func (x Index) Stride() uint64 {
	return uint64(x.KeyWidth + x.OffsetWidth)
}

// Search returns the record offset of the entry holding the greatest
// key that is less than or equal to target. The index must be sorted
// by key in ascending order.
func (x Index) Search(target uint64) (uint32, error) {
	stride := x.Stride()
	low, high := x.Start, x.End

	// Degenerate single-entry region.
	if low == high {
		return x.offsetAt(low)
	}

	for {
		// Bias the probe to an entry boundary.
		mid := (high-low)/stride/2*stride + low
		midKey, err := x.keyAt(mid)
		if err != nil {
			return 0, err
		}

		if high-low == stride {
			// Narrowed down to two neighboring entries, pick by the
			// right boundary key.
			highKey, err := x.keyAt(high)
			if err != nil {
				return 0, err
			}
			pos := mid
			if target >= highKey {
				pos = high
			}
			return x.offsetAt(pos)
		}

		switch {
		case midKey > target:
			high = mid
		case midKey < target:
			low = mid
		default:
			return x.offsetAt(mid)
		}
	}
}

func (x Index) keyAt(pos uint64) (uint64, error) {
	if pos+uint64(x.KeyWidth) > uint64(len(x.Data)) {
		return 0, fmt.Errorf("%w: index key at %d outside buffer of %d bytes", geo.ErrParse, pos, len(x.Data))
	}
	switch x.KeyWidth {
	case 4:
		return uint64(GetUint32(x.Data[pos:])), nil
	case 8:
		return GetUint64(x.Data[pos:]), nil
	default:
		return 0, fmt.Errorf("%w: unsupported index key width %d", geo.ErrParse, x.KeyWidth)
	}
}

func (x Index) offsetAt(pos uint64) (uint32, error) {
	start := pos + uint64(x.KeyWidth)
	if start+uint64(x.OffsetWidth) > uint64(len(x.Data)) {
		return 0, fmt.Errorf("%w: index offset at %d outside buffer of %d bytes", geo.ErrParse, pos, len(x.Data))
	}
	if x.OffsetWidth != 3 {
		return 0, fmt.Errorf("%w: unsupported index offset width %d", geo.ErrParse, x.OffsetWidth)
	}
	return GetUint24(x.Data[start:]), nil
}
