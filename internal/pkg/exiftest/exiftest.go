// Package exiftest builds small image files with hand-laid EXIF blocks for
// tests. Only the tags the photo scanner reads are supported.
package exiftest

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math"
)

// TIFF field types.
const (
	TypeASCII    uint16 = 2
	TypeShort    uint16 = 3
	TypeLong     uint16 = 4
	TypeRational uint16 = 5
)

// Tag IDs used by the scanner.
const (
	TagImageDescription uint16 = 0x010E
	TagMake             uint16 = 0x010F
	TagModel            uint16 = 0x0110
	TagExifIFD          uint16 = 0x8769
	TagGPSIFD           uint16 = 0x8825
	TagDateTimeOriginal uint16 = 0x9003
	TagGPSLatitudeRef   uint16 = 0x0001
	TagGPSLatitude      uint16 = 0x0002
	TagGPSLongitudeRef  uint16 = 0x0003
	TagGPSLongitude     uint16 = 0x0004
)

var le = binary.LittleEndian

// Entry is a single IFD entry with its raw little-endian value bytes.
type Entry struct {
	Tag   uint16
	Type  uint16
	Count uint32
	Data  []byte
}

// ASCII builds a NUL-terminated ASCII entry.
func ASCII(tag uint16, s string) Entry {
	b := append([]byte(s), 0)
	return Entry{Tag: tag, Type: TypeASCII, Count: uint32(len(b)), Data: b}
}

// Rationals builds a RATIONAL entry from numerator/denominator pairs.
func Rationals(tag uint16, vals ...[2]uint32) Entry {
	b := make([]byte, 0, 8*len(vals))
	for _, v := range vals {
		b = le.AppendUint32(b, v[0])
		b = le.AppendUint32(b, v[1])
	}
	return Entry{Tag: tag, Type: TypeRational, Count: uint32(len(vals)), Data: b}
}

// Short builds a single SHORT entry.
func Short(tag uint16, v uint16) Entry {
	return Entry{Tag: tag, Type: TypeShort, Count: 1, Data: le.AppendUint16(nil, v)}
}

// Long builds a single LONG entry.
func Long(tag uint16, v uint32) Entry {
	return Entry{Tag: tag, Type: TypeLong, Count: 1, Data: le.AppendUint32(nil, v)}
}

// DMS converts an unsigned decimal degree value into three rationals with
// seconds kept to 1/10000.
func DMS(v float64) [3][2]uint32 {
	v = math.Abs(v)
	d := math.Floor(v)
	minutes := (v - d) * 60
	m := math.Floor(minutes)
	s := (minutes - m) * 60
	return [3][2]uint32{
		{uint32(d), 1},
		{uint32(m), 1},
		{uint32(math.Round(s * 10000)), 10000},
	}
}

// GPS describes the coordinate tags. An empty ref omits the ref tag.
type GPS struct {
	Lat    [3][2]uint32
	Lng    [3][2]uint32
	LatRef string
	LngRef string
}

// At returns GPS tags for a signed decimal position with N/S and E/W refs.
func At(lat, lng float64) *GPS {
	g := &GPS{Lat: DMS(lat), Lng: DMS(lng), LatRef: "N", LngRef: "E"}
	if lat < 0 {
		g.LatRef = "S"
	}
	if lng < 0 {
		g.LngRef = "W"
	}
	return g
}

// Tags is the content of an EXIF block.
type Tags struct {
	GPS              *GPS
	Description      string
	Make             string
	Model            string
	DateTimeOriginal string

	// GPSEntries, when non-nil, replaces the entries generated from GPS.
	GPSEntries []Entry
	// IFD0Entries are appended to IFD0 after the text tags.
	IFD0Entries []Entry
}

func (t Tags) gpsEntries() []Entry {
	if t.GPSEntries != nil {
		return t.GPSEntries
	}
	if t.GPS == nil {
		return nil
	}
	var out []Entry
	if t.GPS.LatRef != "" {
		out = append(out, ASCII(TagGPSLatitudeRef, t.GPS.LatRef))
	}
	out = append(out, Rationals(TagGPSLatitude, t.GPS.Lat[:]...))
	if t.GPS.LngRef != "" {
		out = append(out, ASCII(TagGPSLongitudeRef, t.GPS.LngRef))
	}
	out = append(out, Rationals(TagGPSLongitude, t.GPS.Lng[:]...))
	return out
}

// TIFF lays out a little-endian TIFF stream: IFD0, then the Exif and GPS
// sub-IFDs when they have entries.
func TIFF(t Tags) []byte {
	var ifd0 []Entry
	if t.Description != "" {
		ifd0 = append(ifd0, ASCII(TagImageDescription, t.Description))
	}
	if t.Make != "" {
		ifd0 = append(ifd0, ASCII(TagMake, t.Make))
	}
	if t.Model != "" {
		ifd0 = append(ifd0, ASCII(TagModel, t.Model))
	}
	ifd0 = append(ifd0, t.IFD0Entries...)

	var exifIFD []Entry
	if t.DateTimeOriginal != "" {
		exifIFD = append(exifIFD, ASCII(TagDateTimeOriginal, t.DateTimeOriginal))
	}
	gpsIFD := t.gpsEntries()

	exifPtr, gpsPtr := -1, -1
	if len(exifIFD) > 0 {
		exifPtr = len(ifd0)
		ifd0 = append(ifd0, Long(TagExifIFD, 0))
	}
	if len(gpsIFD) > 0 {
		gpsPtr = len(ifd0)
		ifd0 = append(ifd0, Long(TagGPSIFD, 0))
	}

	next := uint32(8 + ifdSize(ifd0))
	exifOff, gpsOff := uint32(0), uint32(0)
	if exifPtr >= 0 {
		exifOff = next
		next += uint32(ifdSize(exifIFD))
		ifd0[exifPtr] = Long(TagExifIFD, exifOff)
	}
	if gpsPtr >= 0 {
		gpsOff = next
		ifd0[gpsPtr] = Long(TagGPSIFD, gpsOff)
	}

	var buf bytes.Buffer
	buf.WriteString("II")
	buf.Write(le.AppendUint16(nil, 42))
	buf.Write(le.AppendUint32(nil, 8))
	writeIFD(&buf, ifd0, 8)
	if exifPtr >= 0 {
		writeIFD(&buf, exifIFD, exifOff)
	}
	if gpsPtr >= 0 {
		writeIFD(&buf, gpsIFD, gpsOff)
	}
	return buf.Bytes()
}

func ifdSize(entries []Entry) int {
	n := 2 + 12*len(entries) + 4
	for _, e := range entries {
		if len(e.Data) > 4 {
			n += len(e.Data) + len(e.Data)%2
		}
	}
	return n
}

func writeIFD(buf *bytes.Buffer, entries []Entry, start uint32) {
	dataOff := start + uint32(2+12*len(entries)+4)
	var hdr, data []byte
	hdr = le.AppendUint16(hdr, uint16(len(entries)))
	for _, e := range entries {
		hdr = le.AppendUint16(hdr, e.Tag)
		hdr = le.AppendUint16(hdr, e.Type)
		hdr = le.AppendUint32(hdr, e.Count)
		if len(e.Data) <= 4 {
			v := make([]byte, 4)
			copy(v, e.Data)
			hdr = append(hdr, v...)
			continue
		}
		hdr = le.AppendUint32(hdr, dataOff+uint32(len(data)))
		data = append(data, e.Data...)
		if len(data)%2 == 1 {
			data = append(data, 0)
		}
	}
	hdr = le.AppendUint32(hdr, 0)
	buf.Write(hdr)
	buf.Write(data)
}

func pixel() image.Image {
	img := image.NewGray(image.Rect(0, 0, 1, 1))
	img.SetGray(0, 0, color.Gray{Y: 128})
	return img
}

// PlainJPEG returns a 1x1 JPEG without any APP1 segment.
func PlainJPEG() []byte {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, pixel(), nil); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// JPEG returns a 1x1 JPEG with an EXIF APP1 segment right after SOI.
func JPEG(t Tags) []byte {
	return JPEGWithAPP1(append([]byte("Exif\x00\x00"), TIFF(t)...))
}

// JPEGWithAPP1 inserts an arbitrary APP1 payload into a 1x1 JPEG.
func JPEGWithAPP1(payload []byte) []byte {
	raw := PlainJPEG()
	n := len(payload) + 2
	out := make([]byte, 0, len(raw)+n+2)
	out = append(out, raw[:2]...)
	out = append(out, 0xFF, 0xE1, byte(n>>8), byte(n))
	out = append(out, payload...)
	return append(out, raw[2:]...)
}

// Lossless rewrites the baseline SOF0 marker of a JPEG into SOF3, a coding
// image/jpeg does not decode. The stream is otherwise unchanged.
func Lossless(data []byte) []byte {
	out := bytes.Clone(data)
	for i := 2; i+3 < len(out); {
		if out[i] != 0xFF {
			break
		}
		if out[i+1] == 0xC0 {
			out[i+1] = 0xC3
			return out
		}
		i += 2 + int(binary.BigEndian.Uint16(out[i+2:]))
	}
	panic("exiftest: no SOF0 segment")
}

// PlainPNG returns a 1x1 PNG without an eXIf chunk.
func PlainPNG() []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, pixel()); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// PNG returns a 1x1 PNG with an eXIf chunk after IHDR.
func PNG(t Tags) []byte {
	raw := PlainPNG()
	const ihdrEnd = 8 + 4 + 4 + 13 + 4
	data := TIFF(t)

	chunk := make([]byte, 0, len(data)+12)
	chunk = binary.BigEndian.AppendUint32(chunk, uint32(len(data)))
	chunk = append(chunk, "eXIf"...)
	chunk = append(chunk, data...)
	chunk = binary.BigEndian.AppendUint32(chunk, crc32.ChecksumIEEE(chunk[4:]))

	out := make([]byte, 0, len(raw)+len(chunk))
	out = append(out, raw[:ihdrEnd]...)
	out = append(out, chunk...)
	return append(out, raw[ihdrEnd:]...)
}

// GIF returns a 1x1 GIF.
func GIF() []byte {
	img := image.NewPaletted(image.Rect(0, 0, 1, 1), color.Palette{color.Black, color.White})
	var buf bytes.Buffer
	if err := gif.Encode(&buf, img, nil); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
