package geotiff

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gruppe-adler/bomber/internal/geo"
)

func testMetadata(width, height int) Metadata {
	return Metadata{
		Driver:     DriverGTiff,
		DType:      DTypeFloat64,
		Width:      width,
		Height:     height,
		Count:      1,
		NoData:     -9999,
		CRS:        geo.WGS84,
		Transform:  geo.GridTransform(140, -30, 0.05),
		BlockXSize: BlockSize,
		BlockYSize: BlockSize,
	}
}

func TestWriteAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.geotiff")
	band := [][]float64{{1.0, -9999.0}, {2.0, 3.0}}
	mask := [][]bool{{false, true}, {false, false}}

	w, err := Create(path, testMetadata(2, 2))
	require.NoError(t, err)
	assert.Equal(t, path, w.Path())
	require.NoError(t, w.WriteBand(1, band))
	require.NoError(t, w.WriteMask(mask))
	require.NoError(t, w.Close())

	r, err := Read(path)
	require.NoError(t, err)

	assert.Equal(t, 2, r.Width)
	assert.Equal(t, 2, r.Height)
	assert.Equal(t, 2, r.RowsPerStrip)
	assert.Equal(t, "bomber", r.Software)
	assert.Equal(t, band, r.Band)
	assert.Equal(t, mask, r.Mask)
	assert.True(t, r.HasNoData)
	assert.Equal(t, -9999.0, r.NoData)
	assert.Equal(t, geo.WGS84, r.CRS)
	assert.Equal(t, geo.GridTransform(140, -30, 0.05), r.Transform)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestWrite_MultipleStrips(t *testing.T) {
	const width, height = 13, 300
	band := make([][]float64, height)
	mask := make([][]bool, height)
	for r := range band {
		band[r] = make([]float64, width)
		mask[r] = make([]bool, width)
		for c := range band[r] {
			band[r][c] = float64(r*width + c)
			mask[r][c] = (r+c)%3 == 0
		}
	}

	path := filepath.Join(t.TempDir(), "big.geotiff")
	w, err := Create(path, testMetadata(width, height))
	require.NoError(t, err)
	require.NoError(t, w.WriteBand(1, band))
	require.NoError(t, w.WriteMask(mask))
	require.NoError(t, w.Close())

	r, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, BlockSize, r.RowsPerStrip)
	assert.Equal(t, band, r.Band)
	assert.Equal(t, mask, r.Mask)
}

func TestWrite_NorthUpUsesTiepoint(t *testing.T) {
	meta := testMetadata(1, 1)
	meta.Transform = geo.Affine{A: 0.5, C: 10, E: -0.5, F: 20}

	path := filepath.Join(t.TempDir(), "north.geotiff")
	w, err := Create(path, meta)
	require.NoError(t, err)
	require.NoError(t, w.WriteBand(1, [][]float64{{7}}))
	require.NoError(t, w.Close())

	r, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, meta.Transform, r.Transform)
	assert.Nil(t, r.Mask)
}

func TestCreate_RejectsMetadata(t *testing.T) {
	cases := []struct {
		name   string
		modify func(*Metadata)
	}{
		{"Driver", func(m *Metadata) { m.Driver = "PNG" }},
		{"DType", func(m *Metadata) { m.DType = "int16" }},
		{"Count", func(m *Metadata) { m.Count = 3 }},
		{"Size", func(m *Metadata) { m.Width = 0 }},
		{"Block", func(m *Metadata) { m.BlockYSize = 0 }},
		{"Tiled", func(m *Metadata) { m.Tiled = true }},
		{"EPSG", func(m *Metadata) { m.CRS = geo.CRS{} }},
		{"TooLarge", func(m *Metadata) { m.Width, m.Height = 100000, 100000 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			meta := testMetadata(2, 2)
			tc.modify(&meta)

			_, err := Create(filepath.Join(dir, "out.geotiff"), meta)
			var writeErr *WriteError
			require.True(t, errors.As(err, &writeErr), "got %v", err)
			assert.ErrorIs(t, err, ErrWrite)
			assert.Equal(t, "validate", writeErr.Op)

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestCreate_MissingDirectory(t *testing.T) {
	_, err := Create(filepath.Join(t.TempDir(), "missing", "out.geotiff"), testMetadata(2, 2))
	require.ErrorIs(t, err, ErrWrite)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriter_ShapeErrors(t *testing.T) {
	dir := t.TempDir()
	w, err := Create(filepath.Join(dir, "out.geotiff"), testMetadata(2, 2))
	require.NoError(t, err)
	defer w.Abort()

	assert.ErrorIs(t, w.WriteBand(2, [][]float64{{1, 2}, {3, 4}}), ErrWrite)
	assert.ErrorIs(t, w.WriteBand(1, [][]float64{{1, 2}}), ErrWrite)
	assert.ErrorIs(t, w.WriteBand(1, [][]float64{{1, 2}, {3}}), ErrWrite)
	assert.ErrorIs(t, w.WriteMask([][]bool{{true, false, true}, {false, false, false}}), ErrWrite)
}

func TestWriter_CloseWithoutBand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.geotiff")

	w, err := Create(path, testMetadata(2, 2))
	require.NoError(t, err)
	require.ErrorIs(t, w.Close(), ErrWrite)

	// neither the destination nor the temporary file are left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriter_Abort(t *testing.T) {
	dir := t.TempDir()
	w, err := Create(filepath.Join(dir, "out.geotiff"), testMetadata(2, 2))
	require.NoError(t, err)
	require.NoError(t, w.WriteBand(1, [][]float64{{1, 2}, {3, 4}}))
	require.NoError(t, w.Abort())
	require.NoError(t, w.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriter_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.geotiff")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	w, err := Create(path, testMetadata(1, 1))
	require.NoError(t, err)
	require.NoError(t, w.WriteBand(1, [][]float64{{42}}))
	require.NoError(t, w.Close())

	r, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{42}}, r.Band)
}

func TestRead_NotTIFF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.geotiff")
	require.NoError(t, os.WriteFile(path, []byte("not a tiff at all"), 0o644))

	_, err := Read(path)
	assert.Error(t, err)
}

func TestPackBits(t *testing.T) {
	dst := make([]byte, 2)
	packBits(dst, []bool{true, false, false, false, false, false, false, true, true})
	assert.Equal(t, []byte{0x81, 0x80}, dst)
}
