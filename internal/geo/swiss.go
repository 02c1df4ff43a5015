package geo

import "github.com/paulmach/orb"

// swissLV95 implements the Projection interface for EPSG:2056 (CH1903+ / LV95)
// with swisstopo's polynomial approximation. Accuracy is about one meter inside
// Switzerland; results far outside the country are finite but meaningless.
type swissLV95 struct{}

func (swissLV95) EPSG() int { return 2056 }

// ToWGS84 converts LV95 easting/northing to WGS84 lon/lat.
func (swissLV95) ToWGS84(p orb.Point) orb.Point {
	// offsets from Bern in 1000 km units
	y := (p[0] - 2_600_000) / 1_000_000
	x := (p[1] - 1_200_000) / 1_000_000

	// 10000" units
	lonSec := 2.6779094 +
		4.728982*y +
		0.791484*y*x +
		0.1306*y*x*x -
		0.0436*y*y*y

	latSec := 16.9023892 +
		3.238272*x -
		0.270978*y*y -
		0.002528*x*x -
		0.0447*y*y*x -
		0.0140*x*x*x

	return orb.Point{lonSec * 100.0 / 36.0, latSec * 100.0 / 36.0}
}

// FromWGS84 converts WGS84 lon/lat to LV95 easting/northing.
func (swissLV95) FromWGS84(p orb.Point) orb.Point {
	phi := (p[1]*3600 - 169028.66) / 10000
	lambda := (p[0]*3600 - 26782.5) / 10000

	easting := 2_600_072.37 +
		211_455.93*lambda -
		10_938.51*lambda*phi -
		0.36*lambda*phi*phi -
		44.54*lambda*lambda*lambda

	northing := 1_200_147.07 +
		308_807.95*phi +
		3_745.25*lambda*lambda +
		76.63*phi*phi -
		194.56*lambda*lambda*phi +
		119.79*phi*phi*phi

	return orb.Point{easting, northing}
}
