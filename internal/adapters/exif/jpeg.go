package exifadapter

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	markerSOI  = 0xD8
	markerEOI  = 0xD9
	markerSOS  = 0xDA
	markerAPP1 = 0xE1
	markerTEM  = 0x01
	markerRST0 = 0xD0
	markerRST7 = 0xD7
)

// findJPEGExif walks the JPEG marker segments up to the start of scan and
// returns the first APP1 payload carrying an Exif header, or nil when there
// is none. XMP and other APP1 users are skipped.
func findJPEGExif(r io.Reader) ([]byte, error) {
	br := bufio.NewReader(r)

	var soi [2]byte
	if _, err := io.ReadFull(br, soi[:]); err != nil {
		return nil, fmt.Errorf("read SOI: %w", err)
	}
	if soi[0] != 0xFF || soi[1] != markerSOI {
		return nil, errors.New("not a jpeg stream")
	}

	for {
		marker, err := nextMarker(br)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, nil
			}
			return nil, err
		}

		switch {
		case marker == markerSOS || marker == markerEOI:
			return nil, nil
		case marker == markerTEM || (marker >= markerRST0 && marker <= markerRST7):
			continue
		}

		var lenBuf [2]byte
		if _, err := io.ReadFull(br, lenBuf[:]); err != nil {
			return nil, fmt.Errorf("read segment length: %w", err)
		}
		n := int(binary.BigEndian.Uint16(lenBuf[:]))
		if n < 2 {
			return nil, fmt.Errorf("segment 0x%02X: bad length %d", marker, n)
		}
		n -= 2

		if marker != markerAPP1 {
			if _, err := br.Discard(n); err != nil {
				return nil, fmt.Errorf("skip segment 0x%02X: %w", marker, err)
			}
			continue
		}

		payload := make([]byte, n)
		if _, err := io.ReadFull(br, payload); err != nil {
			return nil, fmt.Errorf("read APP1: %w", err)
		}
		if bytes.HasPrefix(payload, exifHeader) {
			return payload, nil
		}
	}
}

// nextMarker reads up to and including the next marker byte, skipping fill.
func nextMarker(br *bufio.Reader) (byte, error) {
	b, err := br.ReadByte()
	if err != nil {
		return 0, err
	}
	if b != 0xFF {
		return 0, fmt.Errorf("expected marker, found 0x%02X", b)
	}
	for {
		b, err = br.ReadByte()
		if err != nil {
			return 0, err
		}
		if b != 0xFF {
			return b, nil
		}
	}
}
