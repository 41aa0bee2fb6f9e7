// Package convert turns BoM grid files into GeoTIFFs.
package convert

import (
	"io"
	"log/slog"

	"github.com/gruppe-adler/bomber/internal/geo"
	"github.com/gruppe-adler/bomber/internal/geotiff"
	"github.com/gruppe-adler/bomber/internal/grid"
)

// OutputSuffix is appended to the input file name to form the output path.
const OutputSuffix = ".geotiff"

// Result describes a finished conversion.
type Result struct {
	OutputPath string
	Header     grid.Header
	Metadata   geotiff.Metadata
	// Data is only set when WithReturnData(true) was given. No-data cells
	// are NaN.
	Data [][]float64
}

type options struct {
	returnData bool
	crs        geo.CRS
	outputPath string
	logger     *slog.Logger
}

// Option configures GridToGeoTIFF.
type Option func(*options)

// WithReturnData makes GridToGeoTIFF return the loaded grid.
func WithReturnData(returnData bool) Option {
	return func(o *options) { o.returnData = returnData }
}

// WithCRS overrides the CRS written to the output. Defaults to geo.WGS84.
func WithCRS(crs geo.CRS) Option {
	return func(o *options) { o.crs = crs }
}

// WithOutputPath writes to path instead of filename + OutputSuffix.
func WithOutputPath(path string) Option {
	return func(o *options) { o.outputPath = path }
}

// WithLogger sets the logger. Nothing is logged by default.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// GridToGeoTIFF converts the BoM grid file filename to a GeoTIFF at
// filename + OutputSuffix.
//
// Errors are *grid.MalformedHeaderError, *grid.MalformedBodyError or
// *geotiff.WriteError. Nothing is written unless header and body parsed.
func GridToGeoTIFF(filename string, opts ...Option) (*Result, error) {
	o := options{
		crs:        geo.WGS84,
		outputPath: filename + OutputSuffix,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger.With("input", filename)

	g, err := grid.Read(filename)
	if err != nil {
		log.Debug("reading grid failed", "error", err)
		return nil, err
	}
	ncols, nrows := g.Header.Dims()
	log.Debug("loaded grid",
		"ncols", ncols, "nrows", nrows,
		"xllcenter", g.Header.XllCenter, "yllcenter", g.Header.YllCenter,
		"cellsize", g.Header.CellSize, "nodata_value", g.Header.NoDataValue)

	meta := Metadata(g.Header, o.crs)

	if err := Write(o.outputPath, meta, g, log); err != nil {
		log.Debug("writing geotiff failed", "output", o.outputPath, "error", err)
		return nil, err
	}
	log.Debug("wrote geotiff", "output", o.outputPath, "crs", o.crs.String(), "crs_name", o.crs.Name, "transform", meta.Transform.GDAL())

	result := &Result{OutputPath: o.outputPath, Header: g.Header, Metadata: meta}
	if o.returnData {
		grid.ApplyMask(g.Data, g.Mask)
		result.Data = g.Data
	}

	return result, nil
}

// Metadata assembles the GeoTIFF metadata for a grid.
func Metadata(h grid.Header, crs geo.CRS) geotiff.Metadata {
	return geotiff.Metadata{
		Driver:     geotiff.DriverGTiff,
		DType:      geotiff.DTypeFloat64,
		Width:      h.Ncols,
		Height:     h.Nrows,
		Count:      1,
		NoData:     h.NoDataValue,
		CRS:        crs,
		Transform:  geo.GridTransform(h.XllCenter, h.YllCenter, h.CellSize),
		Tiled:      false,
		BlockXSize: geotiff.BlockSize,
		BlockYSize: geotiff.BlockSize,
	}
}

// Write encodes band 1 and the no-data mask of g to path.
func Write(path string, meta geotiff.Metadata, g grid.Grid, log *slog.Logger) error {
	w, err := geotiff.Create(path, meta)
	if err != nil {
		return err
	}
	log.Debug("writing geotiff", "output", w.Path(), "width", meta.Width, "height", meta.Height)

	if err := w.WriteBand(1, g.Data); err != nil {
		w.Abort()
		return err
	}
	if err := w.WriteMask(g.Mask); err != nil {
		w.Abort()
		return err
	}

	return w.Close()
}

// Convert is GridToGeoTIFF with the default options. The returned grid is nil
// unless returnData is set.
func Convert(filename string, returnData bool) ([][]float64, error) {
	result, err := GridToGeoTIFF(filename, WithReturnData(returnData))
	if err != nil {
		return nil, err
	}
	return result.Data, nil
}
