package geotiff

import (
	"bufio"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
)

// Software is written to the Software tag of every file.
var Software = "bomber"

// Writer collects a band and a mask and encodes them on Close. The file is
// written to a temporary path next to the destination and only renamed into
// place once encoding succeeded.
type Writer struct {
	path string
	file *os.File
	meta Metadata
	band [][]float64
	mask [][]bool
	done bool
}

// Create validates meta and opens a writer for path.
func Create(path string, meta Metadata) (*Writer, error) {
	if err := meta.Validate(); err != nil {
		return nil, &WriteError{Op: "validate", Path: path, Err: err}
	}

	file, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, &WriteError{Op: "create", Path: path, Err: err}
	}
	if err := file.Chmod(0o644); err != nil {
		file.Close()
		os.Remove(file.Name())
		return nil, &WriteError{Op: "create", Path: path, Err: err}
	}

	return &Writer{path: path, file: file, meta: meta}, nil
}

// Path returns the destination path.
func (w *Writer) Path() string {
	return w.path
}

// WriteBand sets the pixel data of band index. Only band 1 exists.
func (w *Writer) WriteBand(index int, data [][]float64) error {
	if index != 1 {
		return &WriteError{Op: "write band", Path: w.path, Err: fmt.Errorf("band %d out of range", index)}
	}
	if err := w.checkShape(len(data), func(r int) int { return len(data[r]) }); err != nil {
		return &WriteError{Op: "write band", Path: w.path, Err: err}
	}
	w.band = data
	return nil
}

// WriteMask sets the internal mask. A set bit is written for every true cell.
func (w *Writer) WriteMask(mask [][]bool) error {
	if err := w.checkShape(len(mask), func(r int) int { return len(mask[r]) }); err != nil {
		return &WriteError{Op: "write mask", Path: w.path, Err: err}
	}
	w.mask = mask
	return nil
}

func (w *Writer) checkShape(rows int, cols func(int) int) error {
	if rows != w.meta.Height {
		return fmt.Errorf("got %d rows, want %d", rows, w.meta.Height)
	}
	for r := 0; r < rows; r++ {
		if cols(r) != w.meta.Width {
			return fmt.Errorf("row %d has %d columns, want %d", r, cols(r), w.meta.Width)
		}
	}
	return nil
}

// Close encodes the raster and moves it to its destination. The temporary
// file is removed if anything fails.
func (w *Writer) Close() error {
	if w.done {
		return nil
	}
	w.done = true

	err := w.encode()
	if cerr := w.file.Close(); err == nil && cerr != nil {
		err = &WriteError{Op: "close", Path: w.path, Err: cerr}
	}
	if err == nil {
		if rerr := os.Rename(w.file.Name(), w.path); rerr != nil {
			err = &WriteError{Op: "rename", Path: w.path, Err: rerr}
		}
	}
	if err != nil {
		os.Remove(w.file.Name())
	}
	return err
}

// Abort discards everything written so far.
func (w *Writer) Abort() error {
	if w.done {
		return nil
	}
	w.done = true

	err := w.file.Close()
	if rerr := os.Remove(w.file.Name()); err == nil {
		err = rerr
	}
	return err
}

func (w *Writer) encode() error {
	if w.band == nil {
		return &WriteError{Op: "encode", Path: w.path, Err: errors.New("band 1 was never written")}
	}

	m := w.meta
	rowBytes := uint32(m.Width) * 8
	maskRowBytes := uint32(m.maskRowBytes())
	rps := m.rowsPerStrip()

	imageOffset := uint32(headerSize)
	maskOffset := imageOffset + rowBytes*uint32(m.Height)
	ifdOffset := maskOffset
	if w.mask != nil {
		ifdOffset += maskRowBytes * uint32(m.Height)
	}
	if ifdOffset%2 == 1 {
		ifdOffset++
	}

	imageStrips, imageCounts := strips(imageOffset, rowBytes, m.Height, rps)
	imageIFD := encodeIFD(w.imageEntries(imageStrips, imageCounts), ifdOffset)

	var maskIFD []byte
	if w.mask != nil {
		maskIFDOffset := ifdOffset + uint32(len(imageIFD))
		maskStrips, maskCounts := strips(maskOffset, maskRowBytes, m.Height, rps)
		maskIFD = encodeIFD(w.maskEntries(maskStrips, maskCounts), maskIFDOffset)
		setNextIFD(imageIFD, maskIFDOffset)
	}

	// bufio.Writer keeps the first write error and returns it from Flush
	bw := bufio.NewWriterSize(w.file, 1<<20)

	header := make([]byte, headerSize)
	copy(header, "II")
	order.PutUint16(header[2:], 42)
	order.PutUint32(header[4:], ifdOffset)
	bw.Write(header)

	row := make([]byte, rowBytes)
	for _, values := range w.band {
		for c, v := range values {
			order.PutUint64(row[8*c:], math.Float64bits(v))
		}
		bw.Write(row)
	}

	if w.mask != nil {
		packed := make([]byte, maskRowBytes)
		for _, values := range w.mask {
			packBits(packed, values)
			bw.Write(packed)
		}
	}

	written := maskOffset
	if w.mask != nil {
		written += maskRowBytes * uint32(m.Height)
	}
	if written < ifdOffset {
		bw.WriteByte(0)
	}

	bw.Write(imageIFD)
	bw.Write(maskIFD)

	if err := bw.Flush(); err != nil {
		return &WriteError{Op: "write", Path: w.path, Err: err}
	}
	return nil
}

func (w *Writer) imageEntries(offsets, counts []uint32) []entry {
	m := w.meta
	entries := []entry{
		longs(tagImageWidth, uint32(m.Width)),
		longs(tagImageLength, uint32(m.Height)),
		shorts(tagBitsPerSample, 64),
		shorts(tagCompression, 1),
		shorts(tagPhotometric, photometricBlackIsZero),
		longs(tagStripOffsets, offsets...),
		shorts(tagSamplesPerPixel, 1),
		longs(tagRowsPerStrip, uint32(m.rowsPerStrip())),
		longs(tagStripByteCounts, counts...),
		shorts(tagPlanarConfig, 1),
		ascii(tagSoftware, Software),
		shorts(tagSampleFormat, sampleFormatFloat),
		geoKeyDirectory(m),
		ascii(tagGDALNoData, strconv.FormatFloat(m.NoData, 'g', -1, 64)),
	}
	return append(entries, georeference(m)...)
}

func (w *Writer) maskEntries(offsets, counts []uint32) []entry {
	m := w.meta
	return []entry{
		longs(tagNewSubfileType, subfileTypeMask),
		longs(tagImageWidth, uint32(m.Width)),
		longs(tagImageLength, uint32(m.Height)),
		shorts(tagBitsPerSample, 1),
		shorts(tagCompression, 1),
		shorts(tagPhotometric, photometricMask),
		longs(tagStripOffsets, offsets...),
		shorts(tagSamplesPerPixel, 1),
		longs(tagRowsPerStrip, uint32(m.rowsPerStrip())),
		longs(tagStripByteCounts, counts...),
		shorts(tagPlanarConfig, 1),
	}
}

// georeference uses a tiepoint and pixel scale for north-up transforms and
// the full transformation matrix for anything else.
func georeference(m Metadata) []entry {
	t := m.Transform
	if t.IsRectilinear() && t.A > 0 && t.E < 0 {
		return []entry{
			doubles(tagModelPixelScale, t.A, -t.E, 0),
			doubles(tagModelTiepoint, 0, 0, 0, t.C, t.F, 0),
		}
	}
	return []entry{
		doubles(tagModelTransform,
			t.A, t.B, 0, t.C,
			t.D, t.E, 0, t.F,
			0, 0, 0, 0,
			0, 0, 0, 1),
	}
}

func geoKeyDirectory(m Metadata) entry {
	modelType, crsKey := uint16(modelTypeGeographic), keyGeographicType
	if !m.CRS.Geographic {
		modelType, crsKey = modelTypeProjected, keyProjectedCSType
	}

	keys := [][4]uint16{
		{keyGTModelType, 0, 1, modelType},
		{keyGTRasterType, 0, 1, rasterPixelIsArea},
		{crsKey, 0, 1, uint16(m.CRS.EPSG)},
	}

	values := []uint16{1, 1, 0, uint16(len(keys))}
	for _, k := range keys {
		values = append(values, k[:]...)
	}
	return shorts(tagGeoKeyDirectory, values...)
}

// strips returns offsets and byte counts of consecutive strips.
func strips(offset, rowBytes uint32, height, rowsPerStrip int) (offsets, counts []uint32) {
	for row := 0; row < height; row += rowsPerStrip {
		rows := rowsPerStrip
		if row+rows > height {
			rows = height - row
		}
		offsets = append(offsets, offset+uint32(row)*rowBytes)
		counts = append(counts, uint32(rows)*rowBytes)
	}
	return offsets, counts
}

// packBits packs values into dst, most significant bit first.
func packBits(dst []byte, values []bool) {
	for i := range dst {
		dst[i] = 0
	}
	for i, v := range values {
		if v {
			dst[i/8] |= 0x80 >> (i % 8)
		}
	}
}
