package convert

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gruppe-adler/bomber/internal/geo"
	"github.com/gruppe-adler/bomber/internal/geotiff"
	"github.com/gruppe-adler/bomber/internal/grid"
)

const header = `ncols 2
nrows 2
xllcenter 140.0
yllcenter -30.0
cellsize 0.05
nodata_value -9999.0
`

func writeGrid(t *testing.T, dir, header, body string) string {
	t.Helper()
	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString(body)
	for i := 0; i < grid.FooterLines; i++ {
		fmt.Fprintf(&sb, "footer line %d\n", i)
	}
	path := filepath.Join(dir, "rain.grid")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))
	return path
}

func TestGridToGeoTIFF_ReturnData(t *testing.T) {
	path := writeGrid(t, t.TempDir(), header, "1.0 -9999.0\n2.0 3.0\n")

	result, err := GridToGeoTIFF(path, WithReturnData(true))
	require.NoError(t, err)

	assert.Equal(t, path+".geotiff", result.OutputPath)
	require.Len(t, result.Data, 2)
	assert.Equal(t, 1.0, result.Data[0][0])
	assert.True(t, math.IsNaN(result.Data[0][1]))
	assert.Equal(t, []float64{2.0, 3.0}, result.Data[1])

	r, err := geotiff.Read(result.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1.0, -9999.0}, {2.0, 3.0}}, r.Band)
	assert.Equal(t, [][]bool{{false, true}, {false, false}}, r.Mask)
	assert.Equal(t, -9999.0, r.NoData)
	assert.Equal(t, geo.WGS84, r.CRS)

	x, y := r.Transform.Apply(0, 0)
	assert.Equal(t, 140.0, x)
	assert.Equal(t, -30.0, y)
	x, y = r.Transform.Apply(1, 0)
	assert.InDelta(t, 140.05, x, 1e-12)
	assert.Equal(t, -30.0, y)
}

func TestConvert_Default(t *testing.T) {
	path := writeGrid(t, t.TempDir(), header, "1.0 -9999.0\n2.0 3.0\n")

	data, err := Convert(path, false)
	require.NoError(t, err)
	assert.Nil(t, data)

	r, err := geotiff.Read(path + OutputSuffix)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1.0, -9999.0}, {2.0, 3.0}}, r.Band)
	assert.Equal(t, [][]bool{{false, true}, {false, false}}, r.Mask)
}

func TestConvert_KeepsExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rain.txt")
	src := writeGrid(t, dir, header, "1 2\n3 4\n")
	require.NoError(t, os.Rename(src, path))

	_, err := Convert(path, false)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "rain.txt.geotiff"))
}

func TestConvert_MissingCellsize(t *testing.T) {
	dir := t.TempDir()
	path := writeGrid(t, dir, strings.Replace(header, "cellsize 0.05", "cellsz 0.05", 1), "1 2\n3 4\n")

	_, err := Convert(path, true)
	var headerErr *grid.MalformedHeaderError
	require.True(t, errors.As(err, &headerErr), "got %v", err)
	assert.Equal(t, "cellsize", headerErr.Key)
	assert.NoFileExists(t, path+OutputSuffix)
}

func TestConvert_ShapeMismatch(t *testing.T) {
	dir := t.TempDir()
	path := writeGrid(t, dir, header, "1 2 3\n4 5 6\n")

	_, err := Convert(path, false)
	assert.ErrorIs(t, err, grid.ErrMalformedBody)
	assert.NoFileExists(t, path+OutputSuffix)
}

func TestGridToGeoTIFF_WriteError(t *testing.T) {
	dir := t.TempDir()
	path := writeGrid(t, dir, header, "1 2\n3 4\n")

	_, err := GridToGeoTIFF(path, WithOutputPath(filepath.Join(dir, "missing", "out.geotiff")))
	var writeErr *geotiff.WriteError
	require.True(t, errors.As(err, &writeErr), "got %v", err)
}

func TestGridToGeoTIFF_RejectedCRS(t *testing.T) {
	dir := t.TempDir()
	path := writeGrid(t, dir, header, "1 2\n3 4\n")

	_, err := GridToGeoTIFF(path, WithCRS(geo.CRS{}))
	require.ErrorIs(t, err, geotiff.ErrWrite)
	assert.NoFileExists(t, path+OutputSuffix)
}

func TestGridToGeoTIFF_Logs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	path := writeGrid(t, t.TempDir(), header, "1 2\n3 4\n")

	_, err := GridToGeoTIFF(path, WithLogger(logger))
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "loaded grid")
	assert.Contains(t, buf.String(), "wrote geotiff")
	assert.Contains(t, buf.String(), "EPSG:4326")
	assert.Contains(t, buf.String(), `crs_name="WGS 84"`)
	assert.Contains(t, buf.String(), `msg="writing geotiff"`)
	assert.Contains(t, buf.String(), "output="+path+OutputSuffix)
}

func TestMetadata(t *testing.T) {
	h := grid.Header{Ncols: 3, Nrows: 4, XllCenter: 1, YllCenter: 2, CellSize: 0.5, NoDataValue: -1}

	m := Metadata(h, geo.WGS84)
	assert.Equal(t, geotiff.DriverGTiff, m.Driver)
	assert.Equal(t, geotiff.DTypeFloat64, m.DType)
	assert.Equal(t, 3, m.Width)
	assert.Equal(t, 4, m.Height)
	assert.Equal(t, 1, m.Count)
	assert.Equal(t, -1.0, m.NoData)
	assert.False(t, m.Tiled)
	assert.Equal(t, 128, m.BlockXSize)
	assert.Equal(t, 128, m.BlockYSize)
	assert.Equal(t, [6]float64{1, 0.5, 0, 2, 0, 0.5}, m.Transform.GDAL())
	assert.NoError(t, m.Validate())
}
