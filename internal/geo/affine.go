package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// Affine maps grid coordinates (col, row) to world coordinates:
//
//	x = A*col + B*row + C
//	y = D*col + E*row + F
type Affine struct {
	A, B, C float64
	D, E, F float64
}

// Identity returns the identity transform.
func Identity() Affine {
	return Affine{A: 1, E: 1}
}

// Translation returns a transform that shifts by (x, y).
func Translation(x, y float64) Affine {
	return Affine{A: 1, C: x, E: 1, F: y}
}

// Scale returns a transform that scales both axes by s.
func Scale(s float64) Affine {
	return Affine{A: s, E: s}
}

// Multiply composes two transforms. The result applies other first, then a.
func (a Affine) Multiply(other Affine) Affine {
	return Affine{
		A: a.A*other.A + a.B*other.D,
		B: a.A*other.B + a.B*other.E,
		C: a.A*other.C + a.B*other.F + a.C,
		D: a.D*other.A + a.E*other.D,
		E: a.D*other.B + a.E*other.E,
		F: a.D*other.C + a.E*other.F + a.F,
	}
}

// Apply maps grid coordinate (col, row) to world coordinates.
func (a Affine) Apply(col, row float64) (x, y float64) {
	return a.A*col + a.B*row + a.C, a.D*col + a.E*row + a.F
}

// Point is Apply returning an orb.Point.
func (a Affine) Point(col, row float64) orb.Point {
	x, y := a.Apply(col, row)
	return orb.Point{x, y}
}

// GDAL returns the six coefficient geotransform in GDAL order
// (C, A, B, F, D, E).
func (a Affine) GDAL() [6]float64 {
	return [6]float64{a.C, a.A, a.B, a.F, a.D, a.E}
}

// IsRectilinear reports whether the transform has no rotation or shear.
func (a Affine) IsRectilinear() bool {
	return a.B == 0 && a.D == 0
}

// Bound returns the world extent covered by a width x height grid.
func (a Affine) Bound(width, height int) orb.Bound {
	w, h := float64(width), float64(height)
	corners := []orb.Point{a.Point(0, 0), a.Point(w, 0), a.Point(0, h), a.Point(w, h)}

	b := orb.Bound{
		Min: orb.Point{math.Inf(1), math.Inf(1)},
		Max: orb.Point{math.Inf(-1), math.Inf(-1)},
	}
	for _, p := range corners {
		b.Min[0] = math.Min(b.Min[0], p[0])
		b.Min[1] = math.Min(b.Min[1], p[1])
		b.Max[0] = math.Max(b.Max[0], p[0])
		b.Max[1] = math.Max(b.Max[1], p[1])
	}
	return b
}

// GridTransform builds the transform for a grid whose lower left cell is
// centred on (xll, yll): a translation composed with a uniform scale by
// cellSize.
func GridTransform(xll, yll, cellSize float64) Affine {
	return Identity().Multiply(Translation(xll, yll)).Multiply(Scale(cellSize))
}
