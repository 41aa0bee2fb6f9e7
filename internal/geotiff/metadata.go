// Package geotiff writes single band float64 GeoTIFF files with an internal
// mask, and reads back the files it writes.
package geotiff

import (
	"errors"
	"fmt"
	"math"

	"github.com/gruppe-adler/bomber/internal/geo"
)

const (
	// DriverGTiff is the only supported output driver.
	DriverGTiff = "GTiff"
	// DTypeFloat64 is the only supported pixel type.
	DTypeFloat64 = "float64"
	// BlockSize is the default block width and height.
	BlockSize = 128
)

// ErrWrite is matched by every *WriteError.
var ErrWrite = errors.New("geotiff: write failed")

// WriteError reports an output file that could not be created or written, or
// metadata the encoder does not accept.
type WriteError struct {
	Op   string
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("geotiff: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("geotiff: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrWrite) match.
func (e *WriteError) Is(target error) bool { return target == ErrWrite }

// Metadata describes the raster to write.
type Metadata struct {
	Driver     string
	DType      string
	Width      int
	Height     int
	Count      int
	NoData     float64
	CRS        geo.CRS
	Transform  geo.Affine
	Tiled      bool
	BlockXSize int
	BlockYSize int
}

// Validate checks that the encoder can write m.
func (m Metadata) Validate() error {
	switch {
	case m.Driver != DriverGTiff:
		return fmt.Errorf("unsupported driver %q", m.Driver)
	case m.DType != DTypeFloat64:
		return fmt.Errorf("unsupported dtype %q", m.DType)
	case m.Count != 1:
		return fmt.Errorf("band count must be 1, got %d", m.Count)
	case m.Width <= 0 || m.Height <= 0:
		return fmt.Errorf("invalid size %dx%d", m.Width, m.Height)
	case m.BlockXSize <= 0 || m.BlockYSize <= 0:
		return fmt.Errorf("invalid block size %dx%d", m.BlockXSize, m.BlockYSize)
	case m.Tiled:
		return errors.New("tiled output is not supported")
	case m.CRS.EPSG <= 0 || m.CRS.EPSG > math.MaxUint16:
		return fmt.Errorf("invalid EPSG code %d", m.CRS.EPSG)
	}

	if size := m.fileSize(); size > maxClassicSize {
		return fmt.Errorf("%d bytes of raster data exceed the classic TIFF limit", size)
	}

	return nil
}

func (m Metadata) rowsPerStrip() int {
	if m.BlockYSize > m.Height {
		return m.Height
	}
	return m.BlockYSize
}

func (m Metadata) maskRowBytes() int {
	return (m.Width + 7) / 8
}

// fileSize is an upper bound of the encoded size, IFDs included.
func (m Metadata) fileSize() uint64 {
	w, h := uint64(m.Width), uint64(m.Height)
	strips := uint64((m.Height + m.rowsPerStrip() - 1) / m.rowsPerStrip())
	return headerSize + w*h*8 + h*uint64(m.maskRowBytes()) + 2*strips*16 + 4096
}
