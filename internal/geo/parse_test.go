package geo

import (
	"errors"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWKT(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  orb.Geometry
		count int
	}{
		{"point", "POINT (1 2)", orb.Point{1, 2}, 1},
		{"point lowercase no space", "point(1 2)", orb.Point{1, 2}, 1},
		{"linestring", "LINESTRING (0 0, 1 1, 2 0)", orb.LineString{{0, 0}, {1, 1}, {2, 0}}, 3},
		{"polygon", "POLYGON ((0 0, 4 0, 4 4, 0 4, 0 0))", nil, 5},
		{"multipoint", "MULTIPOINT ((1 2), (3 4))", nil, 2},
		{"multilinestring", "MULTILINESTRING ((0 0, 1 1), (2 2, 3 3, 4 4))", nil, 5},
		{"multipolygon", "MULTIPOLYGON (((0 0, 1 0, 1 1, 0 0)), ((5 5, 6 5, 6 6, 5 5)))", nil, 8},
		{"surrounding whitespace", "  \n POINT (10.5 -3.25)\t", orb.Point{10.5, -3.25}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Parse(tt.text, FormatWKT, "EPSG:4326")
			require.NoError(t, err)
			assert.Equal(t, "EPSG:4326", g.CRS)
			assert.Equal(t, tt.count, VertexCount(g.Shape))
			if tt.want != nil {
				assert.Equal(t, tt.want, g.Shape)
			}
		})
	}
}

func TestParseWKT_Invalid(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"POINT (1 2",
		"POINT 1 2)",
		"CIRCLE (1 2 3)",
		"POINT EMPTY",
		"LINESTRING EMPTY",
		"{\"type\":\"Point\",\"coordinates\":[1,2]}",
		"POINT (NaN 1)",
		"POINT (1 nan)",
		"POINT (Inf 1)",
		"POINT (-Infinity 1)",
		"POINT (0x1p3 2)",
		"POINT (1_0 2)",
		"POINT (1..2 3)",
		"POINT ()",
		"LINESTRING (1 2,, 3 4)",
		"LINESTRING (, 1 2, 3 4)",
		"LINESTRING (1 2, 3 4,)",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in, FormatWKT, "EPSG:4326")
			require.Error(t, err)

			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, FormatWKT, pe.Format)
		})
	}
}

func TestParseWKT_NumberForms(t *testing.T) {
	for in, want := range map[string]orb.Point{
		"POINT (+1 -2)":     {1, -2},
		"POINT (1. .5)":     {1, 0.5},
		"POINT (1e3 2E-1)":  {1000, 0.2},
		"POINT (-1.5e+2 0)": {-150, 0},
		"point (10 20)":     {10, 20},
		"POINT(1 2)":        {1, 2},
	} {
		g, err := ParseWKT(in, "EPSG:4326")
		require.NoError(t, err, in)
		assert.Equal(t, want, g.Shape, in)
	}
}

func TestParseWKT_NonFiniteIsParseError(t *testing.T) {
	_, err := ParseWKT("POINT (NaN 1)", DisplayCRS)
	require.Error(t, err)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, FormatWKT, pe.Format)
}

func TestParseGeoJSON(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  orb.Geometry
		count int
	}{
		{"point", `{"type":"Point","coordinates":[1,2]}`, orb.Point{1, 2}, 1},
		{"point with altitude", `{"type":"Point","coordinates":[1,2,30]}`, orb.Point{1, 2}, 1},
		{"linestring", `{"type":"LineString","coordinates":[[0,0],[1,1]]}`, orb.LineString{{0, 0}, {1, 1}}, 2},
		{"polygon", `{"type":"Polygon","coordinates":[[[0,0],[4,0],[4,4],[0,0]]]}`, nil, 4},
		{"multipolygon", `{"type":"MultiPolygon","coordinates":[[[[0,0],[1,0],[1,1],[0,0]]]]}`, nil, 4},
		{"feature wrapper", `{"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[1,2]}}`, orb.Point{1, 2}, 1},
		{"geometry collection", `{"type":"GeometryCollection","geometries":[{"type":"Point","coordinates":[1,2]},{"type":"LineString","coordinates":[[0,0],[1,1]]}]}`, nil, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Parse(tt.text, FormatGeoJSON, "EPSG:4326")
			require.NoError(t, err)
			assert.Equal(t, tt.count, VertexCount(g.Shape))
			if tt.want != nil {
				assert.Equal(t, tt.want, g.Shape)
			}
		})
	}
}

func TestParseGeoJSON_Invalid(t *testing.T) {
	inputs := map[string]string{
		"empty":              "",
		"not json":           "POINT (1 2)",
		"truncated":          `{"type":"Point","coordinates":[1,2]`,
		"missing type":       `{"coordinates":[1,2]}`,
		"unknown type":       `{"type":"Circle","coordinates":[1,2]}`,
		"missing coords":     `{"type":"Point"}`,
		"null coords":        `{"type":"Point","coordinates":null}`,
		"short position":     `{"type":"Point","coordinates":[1]}`,
		"string position":    `{"type":"Point","coordinates":["a","b"]}`,
		"wrong nesting":      `{"type":"LineString","coordinates":[1,2]}`,
		"empty linestring":   `{"type":"LineString","coordinates":[]}`,
		"feature collection": `{"type":"FeatureCollection","features":[]}`,
		"null geometry":      `{"type":"Feature","geometry":null}`,
	}

	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(in, FormatGeoJSON, "EPSG:4326")
			require.Error(t, err)

			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, FormatGeoJSON, pe.Format)
			assert.Contains(t, err.Error(), "GEOJSON")
		})
	}
}

func TestParse_FormatsAgree(t *testing.T) {
	a, err := ParseWKT("POLYGON ((0 0, 4 0, 4 4, 0 0))", "EPSG:3857")
	require.NoError(t, err)
	b, err := ParseGeoJSON(`{"type":"Polygon","coordinates":[[[0,0],[4,0],[4,4],[0,0]]]}`, "EPSG:3857")
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{
		"WKT":     FormatWKT,
		"wkt":     FormatWKT,
		"GEOJSON": FormatGeoJSON,
		"GeoJSON": FormatGeoJSON,
	} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFormat("KML")
	assert.Error(t, err)

	var f Format
	require.NoError(t, f.UnmarshalText([]byte("geojson")))
	assert.Equal(t, FormatGeoJSON, f)
	assert.Equal(t, "GEOJSON", f.String())
}
