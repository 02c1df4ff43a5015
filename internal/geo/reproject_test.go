package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReproject_WGS84ToMercator(t *testing.T) {
	got, err := Reproject(orb.Point{1, 2}, "EPSG:4326", DisplayCRS)
	require.NoError(t, err)

	p, ok := got.(orb.Point)
	require.True(t, ok)
	assert.InDelta(t, 111319.49, p[0], 0.01)
	assert.InDelta(t, 222684.20, p[1], 0.01)
}

func TestReproject_Identity(t *testing.T) {
	shapes := []orb.Geometry{
		orb.Point{1.23456789012345, -9.87654321098765},
		orb.LineString{{0.1, 0.2}, {0.3, 0.4}},
		orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}},
	}

	for _, g := range shapes {
		for _, crs := range []string{"EPSG:3857", "EPSG:4326", "NOT-A-CRS"} {
			got, err := Reproject(g, crs, crs)
			require.NoError(t, err)
			assert.Equal(t, g, got)
		}
	}
}

func TestReproject_AliasIsIdentity(t *testing.T) {
	g := orb.Point{12345.678, 98765.4321}

	got, err := Reproject(g, "EPSG:900913", "EPSG:3857")
	require.NoError(t, err)
	assert.Equal(t, g, got)
}

func TestReproject_DoesNotModifyInput(t *testing.T) {
	in := orb.LineString{{1, 2}, {3, 4}}

	out, err := Reproject(in, "EPSG:4326", "EPSG:3857")
	require.NoError(t, err)

	assert.Equal(t, orb.LineString{{1, 2}, {3, 4}}, in)
	assert.NotEqual(t, in, out)
}

func TestReproject_PreservesTopology(t *testing.T) {
	in := orb.MultiPolygon{
		{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}, {{0.2, 0.2}, {0.4, 0.2}, {0.4, 0.4}, {0.2, 0.2}}},
		{{{5, 5}, {6, 5}, {6, 6}, {5, 5}}},
	}

	out, err := Reproject(in, "EPSG:4326", "EPSG:3857")
	require.NoError(t, err)

	mp, ok := out.(orb.MultiPolygon)
	require.True(t, ok)
	require.Len(t, mp, 2)
	assert.Len(t, mp[0], 2)
	assert.Len(t, mp[1], 1)
	assert.Equal(t, VertexCount(in), VertexCount(out))
}

func TestReproject_RoundTrip(t *testing.T) {
	in := orb.Point{8.5417, 47.3769}

	merc, err := Reproject(in, "EPSG:4326", "EPSG:3857")
	require.NoError(t, err)
	back, err := Reproject(merc, "EPSG:3857", "EPSG:4326")
	require.NoError(t, err)

	p := back.(orb.Point)
	assert.InDelta(t, in[0], p[0], 1e-9)
	assert.InDelta(t, in[1], p[1], 1e-9)
}

func TestReproject_SwissToMercator(t *testing.T) {
	// Bern, LV95 origin
	out, err := Reproject(orb.Point{2_600_000, 1_200_000}, "EPSG:2056", "EPSG:4326")
	require.NoError(t, err)

	p := out.(orb.Point)
	assert.InDelta(t, 7.438632, p[0], 0.001)
	assert.InDelta(t, 46.951083, p[1], 0.001)
}

func TestReproject_UnknownCRS(t *testing.T) {
	tests := []struct{ from, to string }{
		{"EPSG:99999", "EPSG:3857"},
		{"EPSG:4326", "bogus"},
		{"", "EPSG:3857"},
	}

	for _, tt := range tests {
		_, err := Reproject(orb.Point{1, 2}, tt.from, tt.to)
		require.Error(t, err)

		var re *ReprojectError
		require.True(t, errors.As(err, &re))
		assert.Equal(t, tt.from, re.From)
		assert.Equal(t, tt.to, re.To)
		assert.True(t, errors.Is(err, ErrUnknownCRS))
	}
}

func TestReproject_NonFinite(t *testing.T) {
	_, err := Reproject(orb.Point{math.NaN(), 0}, "EPSG:4326", "EPSG:3857")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNonFinite))

	_, err = Reproject(orb.Point{1, math.Inf(1)}, DisplayCRS, DisplayCRS)
	assert.ErrorIs(t, err, ErrNonFinite)
}

func TestGeometryTo(t *testing.T) {
	g, err := ParseWKT("POINT (1 2)", "EPSG:4326")
	require.NoError(t, err)

	d, err := g.To(DisplayCRS)
	require.NoError(t, err)
	assert.Equal(t, DisplayCRS, d.CRS)

	b := d.Bound()
	assert.Equal(t, b.Min, b.Max)
}
