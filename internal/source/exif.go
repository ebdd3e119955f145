package source

import "encoding/binary"

// DecodeExifRotation scans JPEG source bytes for an EXIF orientation tag
// and returns the clockwise rotation in degrees (0, 90, 180, or 270) that
// transform.Orient expects as its exifRotation argument. Non-JPEG data, a
// missing APP1/Exif segment, or a malformed TIFF structure all resolve to
// 0 rather than failing the caller, matching how probeOrientation degrades
// to OrientationUnknown on any read error.
//
// The four mirrored orientation values (2, 4, 5, 7) have no representable
// rotation in this pipeline, since there is no flip-horizontal transform
// stage; they are treated as 0 rather than guessed at.
func DecodeExifRotation(data []byte) int {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return 0
	}

	offset := 2
	for offset+4 <= len(data) {
		if data[offset] != 0xFF {
			return 0
		}
		marker := data[offset+1]
		if marker == 0xD8 || marker == 0xD9 {
			offset += 2
			continue
		}
		if marker >= 0xD0 && marker <= 0xD7 {
			offset += 2
			continue
		}
		segLen := int(binary.BigEndian.Uint16(data[offset+2 : offset+4]))
		if segLen < 2 || offset+2+segLen > len(data) {
			return 0
		}
		segment := data[offset+4 : offset+2+segLen]

		if marker == 0xE1 {
			if rot, ok := exifOrientationFromAPP1(segment); ok {
				return rot
			}
			return 0
		}
		// SOS marks the end of metadata segments; the scan line follows.
		if marker == 0xDA {
			return 0
		}
		offset += 2 + segLen
	}
	return 0
}

const exifHeader = "Exif\x00\x00"

func exifOrientationFromAPP1(segment []byte) (int, bool) {
	if len(segment) < len(exifHeader)+8 || string(segment[:len(exifHeader)]) != exifHeader {
		return 0, false
	}
	tiff := segment[len(exifHeader):]

	var order binary.ByteOrder
	switch string(tiff[0:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return 0, false
	}
	if order.Uint16(tiff[2:4]) != 0x002A {
		return 0, false
	}

	ifdOffset := order.Uint32(tiff[4:8])
	if int(ifdOffset)+2 > len(tiff) {
		return 0, false
	}

	entryCount := int(order.Uint16(tiff[ifdOffset : ifdOffset+2]))
	base := int(ifdOffset) + 2
	const entrySize = 12
	for i := 0; i < entryCount; i++ {
		start := base + i*entrySize
		if start+entrySize > len(tiff) {
			break
		}
		entry := tiff[start : start+entrySize]
		tag := order.Uint16(entry[0:2])
		if tag != 0x0112 {
			continue
		}
		value := order.Uint16(entry[8:10])
		return rotationFromOrientationTag(int(value)), true
	}
	return 0, false
}

// rotationFromOrientationTag maps the standard TIFF/EXIF orientation
// values to the clockwise degrees transform.Orient understands. Mirror
// variants (2, 4, 5, 7) fall back to 0: unrotated, unmirrored.
func rotationFromOrientationTag(tag int) int {
	switch tag {
	case 1:
		return 0
	case 3:
		return 180
	case 6:
		return 90
	case 8:
		return 270
	default:
		return 0
	}
}
