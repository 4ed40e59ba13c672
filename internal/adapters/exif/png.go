package exifadapter

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// maxExifChunk bounds the eXIf payload we are willing to buffer.
const maxExifChunk = 16 << 20

// findPNGExif walks the PNG chunk list and returns the eXIf payload, or nil
// when the image has none.
func findPNGExif(r io.Reader) ([]byte, error) {
	br := bufio.NewReader(r)

	sig := make([]byte, len(pngSignature))
	if _, err := io.ReadFull(br, sig); err != nil {
		return nil, fmt.Errorf("read signature: %w", err)
	}
	if !bytes.Equal(sig, pngSignature) {
		return nil, errors.New("not a png stream")
	}

	var hdr [8]byte
	for {
		if _, err := io.ReadFull(br, hdr[:]); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, nil
			}
			return nil, fmt.Errorf("read chunk header: %w", err)
		}
		length := binary.BigEndian.Uint32(hdr[:4])
		typ := string(hdr[4:8])

		switch typ {
		case "eXIf":
			if length > maxExifChunk {
				return nil, fmt.Errorf("eXIf chunk too large: %d bytes", length)
			}
			data := make([]byte, length)
			if _, err := io.ReadFull(br, data); err != nil {
				return nil, fmt.Errorf("read eXIf chunk: %w", err)
			}
			return data, nil
		case "IEND":
			return nil, nil
		}

		// data + CRC
		if _, err := io.CopyN(io.Discard, br, int64(length)+4); err != nil {
			return nil, fmt.Errorf("skip %s chunk: %w", typ, err)
		}
	}
}
