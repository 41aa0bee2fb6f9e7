package grid

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

const (
	// FooterLines is the number of trailing metadata lines every BoM grid
	// file carries after its body. They are never interpreted.
	FooterLines = 18

	// NoDataTolerance bounds the squared difference between a cell and the
	// no-data sentinel for the cell to count as no-data.
	NoDataTolerance = 1e-6

	maxLineLength = 64 * 1024 * 1024
)

// LoadBody reads a complete BoM grid file and returns its cells as a
// (Nrows, Ncols) array. The first HeaderLines and the last FooterLines lines
// are skipped, blank lines in between are ignored.
func LoadBody(r io.Reader, header Header) ([][]float64, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}

	if len(lines) < HeaderLines+FooterLines {
		return nil, &MalformedBodyError{Row: -1, Reason: fmt.Sprintf("file has %d lines, need at least %d header and %d footer lines", len(lines), HeaderLines, FooterLines)}
	}

	body := lines[HeaderLines : len(lines)-FooterLines]
	if len(body) < header.Nrows {
		return nil, &MalformedBodyError{Row: -1, Reason: fmt.Sprintf("found %d body lines, header declares %d rows", len(body), header.Nrows)}
	}

	data := make([][]float64, 0, header.Nrows)

	for _, line := range body {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		rowIndex := len(data)
		if rowIndex >= header.Nrows {
			return nil, &MalformedBodyError{Row: rowIndex, Reason: fmt.Sprintf("more than the declared %d rows", header.Nrows)}
		}

		row, err := parseDataLine(fields, header.Ncols)
		if err != nil {
			return nil, &MalformedBodyError{Row: rowIndex, Reason: err.Error()}
		}
		data = append(data, row)
	}

	if len(data) != header.Nrows {
		return nil, &MalformedBodyError{Row: -1, Reason: fmt.Sprintf("found %d rows, header declares %d", len(data), header.Nrows)}
	}

	return data, nil
}

func parseDataLine(fields []string, cols int) ([]float64, error) {
	if len(fields) != cols {
		return nil, fmt.Errorf("found %d cells, header declares %d", len(fields), cols)
	}

	row := make([]float64, cols)
	for i, field := range fields {
		f, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("cell %d is not numeric: %q", i, field)
		}
		row[i] = f
	}

	return row, nil
}

func readLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineLength)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, &MalformedBodyError{Row: -1, Reason: "unreadable input", Err: err}
	}

	return lines, nil
}

// IsNoData reports whether v matches the no-data sentinel, i.e. whether
// (v - noData)^2 is strictly less than NoDataTolerance.
func IsNoData(v, noData float64) bool {
	d := v - noData
	return d*d < NoDataTolerance
}

// NoDataMask returns a same shaped mask which is true for every no-data cell.
func NoDataMask(data [][]float64, noData float64) [][]bool {
	mask := make([][]bool, len(data))
	for r, row := range data {
		mask[r] = make([]bool, len(row))
		for c, v := range row {
			mask[r][c] = IsNoData(v, noData)
		}
	}
	return mask
}

// ApplyMask replaces every masked cell of data with NaN in place.
func ApplyMask(data [][]float64, mask [][]bool) {
	for r, row := range mask {
		for c, masked := range row {
			if masked {
				data[r][c] = math.NaN()
			}
		}
	}
}
