// Package grid reads BoM grid files: a six line header, a numeric body and a
// fixed size footer.
package grid

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"
)

// Grid is a parsed BoM grid file.
type Grid struct {
	Header Header
	Data   [][]float64
	Mask   [][]bool
}

// Z returns the value of the cell at (c, r).
// It will panic if c or r are out of bounds for the grid.
func (g Grid) Z(c, r int) float64 {
	return g.Data[r][c]
}

// Valid reports whether the cell at (c, r) holds data.
func (g Grid) Valid(c, r int) bool {
	return !g.Mask[r][c]
}

// Range returns the minimum and maximum of all valid cells. ok is false if
// every cell is no-data.
func (g Grid) Range() (min, max float64, ok bool) {
	for r, row := range g.Data {
		for c, v := range row {
			if g.Mask[r][c] {
				continue
			}
			if !ok || v < min {
				min = v
			}
			if !ok || v > max {
				max = v
			}
			ok = true
		}
	}
	return min, max, ok
}

// Read loads the BoM grid file at path. Files ending in .gz are decompressed
// on the fly. The file is opened once for the header and once for the body.
func Read(path string) (Grid, error) {
	var g Grid

	header, err := withFile(path, ParseHeader)
	if err != nil {
		return g, err
	}

	data, err := withFile(path, func(r io.Reader) ([][]float64, error) {
		return LoadBody(r, header)
	})
	if err != nil {
		return g, err
	}

	g.Header = header
	g.Data = data
	g.Mask = NoDataMask(data, header.NoDataValue)

	return g, nil
}

// withFile opens path, hands its (decompressed) contents to fn and closes it
// again before returning.
func withFile[T any](path string, fn func(io.Reader) (T, error)) (T, error) {
	var zero T

	file, err := os.Open(path)
	if err != nil {
		return zero, fmt.Errorf("open grid file: %w", err)
	}
	defer file.Close()

	var reader io.Reader = file
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return zero, fmt.Errorf("open gzipped grid file: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	return fn(reader)
}
