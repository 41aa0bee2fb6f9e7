// Package footprint writes a GeoJSON sidecar describing the area a converted
// grid covers.
package footprint

import (
	"encoding/json"
	"os"

	"github.com/paulmach/orb/geojson"

	"github.com/gruppe-adler/bomber/internal/geotiff"
)

// Suffix is appended to the raster path to form the sidecar path.
const Suffix = ".footprint.geojson"

// Build returns a feature collection holding the extent of the raster
// described by meta as a single polygon.
func Build(meta geotiff.Metadata) *geojson.FeatureCollection {
	bound := meta.Transform.Bound(meta.Width, meta.Height)

	feature := geojson.NewFeature(bound.ToPolygon())
	feature.Properties["width"] = meta.Width
	feature.Properties["height"] = meta.Height
	feature.Properties["nodata"] = meta.NoData
	feature.Properties["crs"] = meta.CRS.String()
	feature.Properties["transform"] = meta.Transform.GDAL()

	fc := geojson.NewFeatureCollection()
	fc.Append(feature)

	return fc
}

// Write the footprint of the raster at rasterPath next to it and return the
// sidecar's path.
func Write(rasterPath string, meta geotiff.Metadata) (string, error) {
	path := rasterPath + Suffix

	// marshal
	bytes, err := json.MarshalIndent(Build(meta), "", "    ")
	if err != nil {
		return path, err
	}

	// create file
	f, err := os.Create(path)
	if err != nil {
		return path, err
	}

	// write file
	_, err = f.Write(bytes)
	if err != nil {
		f.Close()
		return path, err
	}

	return path, f.Close()
}
