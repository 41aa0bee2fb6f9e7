package geotiff

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/gruppe-adler/bomber/internal/geo"
)

// Raster is a GeoTIFF read back by Read.
type Raster struct {
	Width, Height int
	RowsPerStrip  int
	Software      string
	NoData        float64
	HasNoData     bool
	CRS           geo.CRS
	Transform     geo.Affine
	Band          [][]float64
	Mask          [][]bool // nil if the file has no internal mask
}

type rawEntry struct {
	typ   uint16
	count uint32
	data  []byte
}

type ifd map[uint16]rawEntry

// Read decodes a little endian, uncompressed, stripped float64 GeoTIFF as
// written by Writer.
func Read(path string) (*Raster, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return decode(buf)
}

func decode(buf []byte) (*Raster, error) {
	if len(buf) < headerSize || !bytes.Equal(buf[:2], []byte("II")) || order.Uint16(buf[2:]) != 42 {
		return nil, errors.New("geotiff: not a little endian classic TIFF")
	}

	image, next, err := readIFD(buf, order.Uint32(buf[4:]))
	if err != nil {
		return nil, err
	}

	r := &Raster{}
	r.Width, r.Height = int(image.uint(tagImageWidth)), int(image.uint(tagImageLength))
	r.RowsPerStrip = int(image.uint(tagRowsPerStrip))
	r.Software = image.ascii(tagSoftware)

	if image.uint(tagBitsPerSample) != 64 || image.uint(tagSampleFormat) != sampleFormatFloat {
		return nil, errors.New("geotiff: only float64 samples are supported")
	}
	if c := image.uint(tagCompression); c != 1 {
		return nil, fmt.Errorf("geotiff: unsupported compression %d", c)
	}

	if s := image.ascii(tagGDALNoData); s != "" {
		if r.NoData, err = strconv.ParseFloat(s, 64); err != nil {
			return nil, fmt.Errorf("geotiff: bad nodata value %q", s)
		}
		r.HasNoData = true
	}

	r.CRS = image.crs()
	r.Transform = image.transform()

	pixels, err := image.stripData(buf, r.Width*8*r.Height)
	if err != nil {
		return nil, err
	}
	r.Band = make([][]float64, r.Height)
	for row := range r.Band {
		r.Band[row] = make([]float64, r.Width)
		for c := range r.Band[row] {
			r.Band[row][c] = math.Float64frombits(order.Uint64(pixels[8*(row*r.Width+c):]))
		}
	}

	if next == 0 {
		return r, nil
	}

	mask, _, err := readIFD(buf, next)
	if err != nil {
		return nil, err
	}
	if mask.uint(tagNewSubfileType) != subfileTypeMask {
		return r, nil
	}

	rowBytes := (r.Width + 7) / 8
	bits, err := mask.stripData(buf, rowBytes*r.Height)
	if err != nil {
		return nil, err
	}
	r.Mask = make([][]bool, r.Height)
	for row := range r.Mask {
		r.Mask[row] = make([]bool, r.Width)
		for c := range r.Mask[row] {
			r.Mask[row][c] = bits[row*rowBytes+c/8]&(0x80>>(c%8)) != 0
		}
	}

	return r, nil
}

func readIFD(buf []byte, offset uint32) (ifd, uint32, error) {
	if int(offset)+2 > len(buf) {
		return nil, 0, errors.New("geotiff: IFD offset out of range")
	}
	n := int(order.Uint16(buf[offset:]))
	end := int(offset) + 2 + 12*n + 4
	if end > len(buf) {
		return nil, 0, errors.New("geotiff: truncated IFD")
	}

	entries := make(ifd, n)
	for i := 0; i < n; i++ {
		p := buf[int(offset)+2+12*i:]
		e := rawEntry{typ: order.Uint16(p[2:]), count: order.Uint32(p[4:])}
		size := int(e.count) * typeSize(e.typ)
		if size <= 4 {
			e.data = p[8 : 8+size]
		} else {
			at := int(order.Uint32(p[8:]))
			if at+size > len(buf) {
				return nil, 0, fmt.Errorf("geotiff: tag %d out of range", order.Uint16(p))
			}
			e.data = buf[at : at+size]
		}
		entries[order.Uint16(p)] = e
	}

	return entries, order.Uint32(buf[end-4:]), nil
}

func (d ifd) uints(tag uint16) []uint32 {
	e, ok := d[tag]
	if !ok {
		return nil
	}
	values := make([]uint32, e.count)
	for i := range values {
		switch e.typ {
		case typeShort:
			values[i] = uint32(order.Uint16(e.data[2*i:]))
		case typeLong:
			values[i] = order.Uint32(e.data[4*i:])
		}
	}
	return values
}

func (d ifd) uint(tag uint16) uint32 {
	values := d.uints(tag)
	if len(values) == 0 {
		return 0
	}
	return values[0]
}

func (d ifd) doubles(tag uint16) []float64 {
	e, ok := d[tag]
	if !ok || e.typ != typeDouble {
		return nil
	}
	values := make([]float64, e.count)
	for i := range values {
		values[i] = math.Float64frombits(order.Uint64(e.data[8*i:]))
	}
	return values
}

func (d ifd) ascii(tag uint16) string {
	e, ok := d[tag]
	if !ok || e.typ != typeASCII {
		return ""
	}
	return string(bytes.TrimRight(e.data, "\x00"))
}

func (d ifd) crs() geo.CRS {
	keys := d.uints(tagGeoKeyDirectory)
	var crs geo.CRS
	if len(keys) < 4 {
		return crs
	}
	for i := 4; i+3 < len(keys); i += 4 {
		switch uint16(keys[i]) {
		case keyGTModelType:
			crs.Geographic = keys[i+3] == modelTypeGeographic
		case keyGeographicType, keyProjectedCSType:
			crs.EPSG = int(keys[i+3])
		}
	}
	if crs.Geographic && crs.EPSG == geo.WGS84.EPSG {
		return geo.WGS84
	}
	return crs
}

func (d ifd) transform() geo.Affine {
	if m := d.doubles(tagModelTransform); len(m) == 16 {
		return geo.Affine{A: m[0], B: m[1], C: m[3], D: m[4], E: m[5], F: m[7]}
	}
	scale, tie := d.doubles(tagModelPixelScale), d.doubles(tagModelTiepoint)
	if len(scale) < 2 || len(tie) < 6 {
		return geo.Affine{}
	}
	return geo.Affine{
		A: scale[0], C: tie[3] - tie[0]*scale[0],
		E: -scale[1], F: tie[4] + tie[1]*scale[1],
	}
}

// stripData concatenates all strips of an IFD.
func (d ifd) stripData(buf []byte, size int) ([]byte, error) {
	offsets, counts := d.uints(tagStripOffsets), d.uints(tagStripByteCounts)
	if len(offsets) != len(counts) {
		return nil, errors.New("geotiff: strip offsets and byte counts differ in length")
	}

	data := make([]byte, 0, size)
	for i, off := range offsets {
		end := int(off) + int(counts[i])
		if end > len(buf) {
			return nil, fmt.Errorf("geotiff: strip %d out of range", i)
		}
		data = append(data, buf[off:end]...)
	}
	if len(data) != size {
		return nil, fmt.Errorf("geotiff: got %d bytes of strip data, want %d", len(data), size)
	}
	return data, nil
}
