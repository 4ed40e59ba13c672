package exifadapter

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

var exifHeader = []byte("Exif\x00\x00")

// tiffTypeSize is the byte size of one value of each TIFF field type.
var tiffTypeSize = map[uint16]uint64{
	1: 1, 2: 1, 3: 2, 4: 4, 5: 8, 6: 1,
	7: 1, 8: 2, 9: 4, 10: 8, 11: 4, 12: 8,
}

// Pointer tags to the Exif, GPS and Interoperability sub-IFDs.
var subIFDPointers = map[uint16]bool{0x8769: true, 0x8825: true, 0xA005: true}

const maxIFDs = 64

var errIFDCycle = errors.New("tiff: IFD chain loops")

// checkTIFF walks every IFD the EXIF decoder reads and rejects blocks it
// cannot survive. goexif multiplies count by type size in 32 bits, so a huge
// count wraps to a small length and is then allocated element by element;
// its IFD chain loop only detects self references. Both would take the
// process down, so they are turned into errors here.
//
// Other damage (truncated IFDs, values past the end) is left to goexif,
// which reports it without allocating.
func checkTIFF(block []byte) error {
	data := bytes.TrimPrefix(block, exifHeader)
	if len(data) < 8 {
		return errors.New("tiff: header truncated")
	}

	var order binary.ByteOrder
	switch string(data[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return errors.New("tiff: unknown byte order")
	}
	if order.Uint16(data[2:4]) != 42 {
		return errors.New("tiff: missing 42 marker")
	}

	w := &ifdWalker{data: data, order: order, seen: map[uint32]bool{}}

	for off := order.Uint32(data[4:8]); off != 0; {
		if w.seen[off] {
			return fmt.Errorf("%w at offset %d", errIFDCycle, off)
		}
		next, complete, err := w.walk(off)
		if err != nil {
			return err
		}
		if !complete {
			break
		}
		off = next
	}

	for len(w.pending) > 0 {
		off := w.pending[0]
		w.pending = w.pending[1:]
		if w.seen[off] {
			continue
		}
		if _, _, err := w.walk(off); err != nil {
			return err
		}
	}
	return nil
}

type ifdWalker struct {
	data    []byte
	order   binary.ByteOrder
	seen    map[uint32]bool
	pending []uint32
}

// walk checks the entries of the IFD at off. complete is false when the IFD
// is cut short; the decoder stops at the same entry.
func (w *ifdWalker) walk(off uint32) (next uint32, complete bool, err error) {
	if len(w.seen) >= maxIFDs {
		return 0, false, fmt.Errorf("tiff: more than %d IFDs", maxIFDs)
	}
	w.seen[off] = true

	size := uint64(len(w.data))
	if uint64(off)+2 > size {
		return 0, false, nil
	}
	n := int16(w.order.Uint16(w.data[off:]))

	pos := uint64(off) + 2
	for i := 0; i < int(n); i++ {
		if pos+12 > size {
			return 0, false, nil
		}
		entry := w.data[pos : pos+12]
		pos += 12

		tag := w.order.Uint16(entry[0:2])
		typ := w.order.Uint16(entry[2:4])
		count := w.order.Uint32(entry[4:8])

		unit, known := tiffTypeSize[typ]
		if !known || count == 0 || count == 1<<32-1 {
			return 0, false, nil
		}
		valLen := unit * uint64(count)
		if valLen > size {
			return 0, false, fmt.Errorf("tiff: tag 0x%04x declares %d values of %d bytes in a %d byte block", tag, count, unit, size)
		}

		val := entry[8:12]
		if valLen > 4 {
			valOff := uint64(w.order.Uint32(entry[8:12]))
			if valOff+valLen > size {
				return 0, false, nil
			}
			val = w.data[valOff : valOff+valLen]
		}

		if subIFDPointers[tag] {
			if ptr, ok := w.firstInt(typ, val); ok && ptr >= 0 && ptr < int64(size) {
				w.pending = append(w.pending, uint32(ptr))
			}
		}
	}

	if pos+4 > size {
		return 0, false, nil
	}
	return w.order.Uint32(w.data[pos:]), true, nil
}

// firstInt decodes the first value of an integer-typed field the way the
// decoder does before following a sub-IFD pointer.
func (w *ifdWalker) firstInt(typ uint16, val []byte) (int64, bool) {
	switch typ {
	case 1:
		return int64(val[0]), true
	case 3:
		return int64(w.order.Uint16(val)), true
	case 4:
		return int64(w.order.Uint32(val)), true
	case 6:
		return int64(int8(val[0])), true
	case 8:
		return int64(int16(w.order.Uint16(val))), true
	case 9:
		return int64(int32(w.order.Uint32(val))), true
	}
	return 0, false
}
