package grid

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// HeaderLines is the number of `key value` lines at the top of every BoM grid file.
const HeaderLines = 6

// Header holds the six metadata values of a BoM grid file.
type Header struct {
	Ncols, Nrows         int
	XllCenter, YllCenter float64
	CellSize             float64
	NoDataValue          float64
}

// Dims returns the dimensions of the grid.
func (h Header) Dims() (c, r int) {
	return h.Ncols, h.Nrows
}

var requiredKeys = []string{"ncols", "nrows", "xllcenter", "yllcenter", "cellsize", "nodata_value"}

// ParseHeader reads the leading `key value` lines of a BoM grid file. It stops
// reading as soon as all six keys are collected, so r is left positioned
// somewhere before the body.
func ParseHeader(r io.Reader) (Header, error) {
	header := Header{}
	raw := make(map[string]string, HeaderLines)
	seen := 0

	err := scanLines(r, func(lineNo int, fields []string) (bool, error) {
		// blank lines don't count towards the header
		if len(fields) == 0 {
			return false, nil
		}
		if len(fields) != 2 {
			return true, &MalformedHeaderError{Line: lineNo, Reason: fmt.Sprintf("expected exactly two fields, got %d", len(fields))}
		}

		raw[fields[0]] = fields[1]
		seen++

		if len(raw) == HeaderLines {
			return true, nil
		}
		if seen >= HeaderLines {
			return true, &MalformedHeaderError{Line: lineNo, Reason: fmt.Sprintf("only %d distinct keys in %d header lines", len(raw), seen)}
		}
		return false, nil
	})
	if err != nil {
		return header, err
	}

	for _, key := range requiredKeys {
		value, found := raw[key]
		if !found {
			return header, &MalformedHeaderError{Key: key, Reason: "required key is missing"}
		}
		if err := parseHeaderValue(key, value, &header); err != nil {
			return header, err
		}
	}

	return header, nil
}

func parseHeaderValue(key, value string, header *Header) error {
	switch key {
	case "ncols", "nrows":
		i, err := strconv.Atoi(value)
		if err != nil {
			return &MalformedHeaderError{Key: key, Reason: "value is not an integer", Err: err}
		}
		if i <= 0 {
			return &MalformedHeaderError{Key: key, Reason: "value must be greater than 0"}
		}
		if key == "ncols" {
			header.Ncols = i
		} else {
			header.Nrows = i
		}
	default:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return &MalformedHeaderError{Key: key, Reason: "value is not a number", Err: err}
		}
		switch key {
		case "xllcenter":
			header.XllCenter = f
		case "yllcenter":
			header.YllCenter = f
		case "cellsize":
			header.CellSize = f
		case "nodata_value":
			header.NoDataValue = f
		}
	}

	return nil
}

// scanLines feeds the whitespace separated fields of each line to fn until fn
// reports done, returns an error or the input ends.
func scanLines(r io.Reader, fn func(lineNo int, fields []string) (done bool, err error)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineLength)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		done, err := fn(lineNo, strings.Fields(scanner.Text()))
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return &MalformedHeaderError{Line: lineNo + 1, Reason: "unreadable line", Err: err}
	}

	return &MalformedHeaderError{Line: lineNo, Reason: fmt.Sprintf("input ended after %d lines", lineNo)}
}
