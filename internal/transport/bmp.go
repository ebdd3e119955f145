// Package transport encodes a frame's dithered output into the device wire
// format and pushes it to the device's HTTP endpoint (C8).
package transport

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/jo-hoe/pixelframe/internal/dither"
)

// EncodeBMP serializes a palette-indexed image as an uncompressed 8-bit BMP:
// rows bottom-up, palette embedded in the declared order. This is the
// device wire format (§4.8, §6): dimensions equal the frame's panel since
// overscan is already baked into the canvas as white padding.
func EncodeBMP(img *dither.Indexed) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("transport: cannot encode nil image")
	}
	width, height := img.Width, img.Height
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("transport: invalid dimensions %dx%d", width, height)
	}

	paletteEntries := img.Palette.Entries
	paletteSize := len(paletteEntries) * 4 // BGRA quad per entry
	rowSize := ((width + 3) / 4) * 4        // rows are padded to a 4-byte boundary
	pixelDataSize := rowSize * height

	fileHeaderSize := 14
	dibHeaderSize := 40
	pixelDataOffset := fileHeaderSize + dibHeaderSize + paletteSize
	fileSize := pixelDataOffset + pixelDataSize

	buf := new(bytes.Buffer)

	// BITMAPFILEHEADER
	buf.WriteString("BM")
	writeUint32(buf, uint32(fileSize))
	writeUint32(buf, 0) // reserved
	writeUint32(buf, uint32(pixelDataOffset))

	// BITMAPINFOHEADER
	writeUint32(buf, uint32(dibHeaderSize))
	writeInt32(buf, int32(width))
	writeInt32(buf, int32(height)) // positive height => bottom-up rows
	writeUint16(buf, 1)            // planes
	writeUint16(buf, 8)            // bits per pixel
	writeUint32(buf, 0)            // no compression
	writeUint32(buf, uint32(pixelDataSize))
	writeInt32(buf, 2835) // ~72 DPI
	writeInt32(buf, 2835)
	writeUint32(buf, uint32(len(paletteEntries)))
	writeUint32(buf, uint32(len(paletteEntries))) // all colors "important"

	// Color table, in declared palette order, BGRA quads.
	for _, entry := range paletteEntries {
		buf.WriteByte(entry.B)
		buf.WriteByte(entry.G)
		buf.WriteByte(entry.R)
		buf.WriteByte(0)
	}

	// Pixel data, bottom-up, each row padded to a 4-byte boundary.
	row := make([]byte, rowSize)
	for y := height - 1; y >= 0; y-- {
		for x := 0; x < width; x++ {
			row[x] = byte(img.Pixels[y*width+x])
		}
		for x := width; x < rowSize; x++ {
			row[x] = 0
		}
		buf.Write(row)
	}

	return buf.Bytes(), nil
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	buf.Write(tmp[:])
}

func writeInt32(buf *bytes.Buffer, v int32) {
	writeUint32(buf, uint32(v))
}

func writeUint16(buf *bytes.Buffer, v uint16) {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	buf.Write(tmp[:])
}
