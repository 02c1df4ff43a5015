package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// webMercator implements the Projection interface for EPSG:3857.
type webMercator struct{}

func (webMercator) EPSG() int { return 3857 }

func (webMercator) ToWGS84(p orb.Point) orb.Point {
	return project.Mercator.ToWGS84(p)
}

func (webMercator) FromWGS84(p orb.Point) orb.Point {
	return project.WGS84.ToMercator(p)
}
