package geo

import "fmt"

// CRS identifies a coordinate reference system by its EPSG code.
type CRS struct {
	EPSG       int
	Name       string
	Geographic bool
}

// WGS84 is the CRS every BoM grid is assumed to use. The grid files don't
// carry any CRS information.
var WGS84 = CRS{EPSG: 4326, Name: "WGS 84", Geographic: true}

// String returns the CRS in "EPSG:<code>" notation.
func (c CRS) String() string {
	return fmt.Sprintf("EPSG:%d", c.EPSG)
}
