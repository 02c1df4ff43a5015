package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// Geometry is a shape tagged with the reference system its coordinates are expressed in.
type Geometry struct {
	Shape orb.Geometry
	CRS   string
}

// To reprojects the geometry into the crs reference system.
func (g Geometry) To(crs string) (Geometry, error) {
	shape, err := Reproject(g.Shape, g.CRS, crs)
	if err != nil {
		return Geometry{}, err
	}
	return Geometry{Shape: shape, CRS: crs}, nil
}

// Bound returns the minimal axis-aligned box covering the geometry.
func (g Geometry) Bound() orb.Bound {
	return g.Shape.Bound()
}

// VertexCount returns the number of coordinates in g, descending into every ring and member.
func VertexCount(g orb.Geometry) int {
	n := 0
	eachPoint(g, func(orb.Point) bool {
		n++
		return true
	})
	return n
}

// isEmpty reports whether g has no coordinates at all.
func isEmpty(g orb.Geometry) bool {
	if g == nil {
		return true
	}
	if _, ok := g.(orb.Point); ok {
		return false
	}
	return VertexCount(g) == 0
}

func allFinite(g orb.Geometry) bool {
	return eachPoint(g, func(p orb.Point) bool {
		return !math.IsNaN(p[0]) && !math.IsInf(p[0], 0) &&
			!math.IsNaN(p[1]) && !math.IsInf(p[1], 0)
	})
}

// eachPoint calls fn for every vertex of g until fn returns false.
// It reports whether the walk visited every vertex.
func eachPoint(g orb.Geometry, fn func(orb.Point) bool) bool {
	switch g := g.(type) {
	case orb.Point:
		return fn(g)
	case orb.MultiPoint:
		for _, p := range g {
			if !fn(p) {
				return false
			}
		}
	case orb.LineString:
		return eachPoint(orb.MultiPoint(g), fn)
	case orb.Ring:
		return eachPoint(orb.MultiPoint(g), fn)
	case orb.MultiLineString:
		for _, ls := range g {
			if !eachPoint(ls, fn) {
				return false
			}
		}
	case orb.Polygon:
		for _, r := range g {
			if !eachPoint(r, fn) {
				return false
			}
		}
	case orb.MultiPolygon:
		for _, p := range g {
			if !eachPoint(p, fn) {
				return false
			}
		}
	case orb.Collection:
		for _, m := range g {
			if !eachPoint(m, fn) {
				return false
			}
		}
	case orb.Bound:
		return fn(g.Min) && fn(g.Max)
	}
	return true
}
