package geotiff

import (
	"encoding/binary"
	"math"
	"sort"
)

const (
	headerSize     = 8
	maxClassicSize = math.MaxUint32

	typeASCII  uint16 = 2
	typeShort  uint16 = 3
	typeLong   uint16 = 4
	typeDouble uint16 = 12
)

// TIFF and GeoTIFF tags
const (
	tagNewSubfileType  uint16 = 254
	tagImageWidth      uint16 = 256
	tagImageLength     uint16 = 257
	tagBitsPerSample   uint16 = 258
	tagCompression     uint16 = 259
	tagPhotometric     uint16 = 262
	tagStripOffsets    uint16 = 273
	tagSamplesPerPixel uint16 = 277
	tagRowsPerStrip    uint16 = 278
	tagStripByteCounts uint16 = 279
	tagPlanarConfig    uint16 = 284
	tagSoftware        uint16 = 305
	tagSampleFormat    uint16 = 339
	tagModelPixelScale uint16 = 33550
	tagModelTiepoint   uint16 = 33922
	tagModelTransform  uint16 = 34264
	tagGeoKeyDirectory uint16 = 34735
	tagGDALNoData      uint16 = 42113
)

const (
	photometricBlackIsZero = 1
	photometricMask        = 4
	subfileTypeMask        = 4
	sampleFormatFloat      = 3
)

// GeoKeys
const (
	keyGTModelType     uint16 = 1024
	keyGTRasterType    uint16 = 1025
	keyGeographicType  uint16 = 2048
	keyProjectedCSType uint16 = 3072
)

const (
	modelTypeProjected  = 1
	modelTypeGeographic = 2
	rasterPixelIsArea   = 1
)

var order = binary.LittleEndian

type entry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

func typeSize(typ uint16) int {
	switch typ {
	case typeShort:
		return 2
	case typeLong:
		return 4
	case typeDouble:
		return 8
	}
	return 1
}

func shorts(tag uint16, values ...uint16) entry {
	data := make([]byte, 2*len(values))
	for i, v := range values {
		order.PutUint16(data[2*i:], v)
	}
	return entry{tag, typeShort, uint32(len(values)), data}
}

func longs(tag uint16, values ...uint32) entry {
	data := make([]byte, 4*len(values))
	for i, v := range values {
		order.PutUint32(data[4*i:], v)
	}
	return entry{tag, typeLong, uint32(len(values)), data}
}

func doubles(tag uint16, values ...float64) entry {
	data := make([]byte, 8*len(values))
	for i, v := range values {
		order.PutUint64(data[8*i:], math.Float64bits(v))
	}
	return entry{tag, typeDouble, uint32(len(values)), data}
}

func ascii(tag uint16, s string) entry {
	data := append([]byte(s), 0)
	return entry{tag, typeASCII, uint32(len(data)), data}
}

// encodeIFD serialises entries as an IFD located at offset. Values that don't
// fit the four byte value field follow the IFD directly. The next IFD offset
// is left zero, see setNextIFD.
func encodeIFD(entries []entry, offset uint32) []byte {
	sort.Slice(entries, func(i, j int) bool { return entries[i].tag < entries[j].tag })

	buf := make([]byte, 2+12*len(entries)+4)
	order.PutUint16(buf, uint16(len(entries)))

	for i, e := range entries {
		p := 2 + 12*i
		order.PutUint16(buf[p:], e.tag)
		order.PutUint16(buf[p+2:], e.typ)
		order.PutUint32(buf[p+4:], e.count)

		if len(e.data) <= 4 {
			copy(buf[p+8:p+12], e.data)
			continue
		}

		// word alignment
		if len(buf)%2 == 1 {
			buf = append(buf, 0)
		}
		order.PutUint32(buf[p+8:], offset+uint32(len(buf)))
		buf = append(buf, e.data...)
	}

	if len(buf)%2 == 1 {
		buf = append(buf, 0)
	}
	return buf
}

// setNextIFD patches the next IFD offset of an IFD encoded by encodeIFD.
func setNextIFD(ifd []byte, next uint32) {
	n := int(order.Uint16(ifd))
	order.PutUint32(ifd[2+12*n:], next)
}
