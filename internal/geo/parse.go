package geo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"
)

var (
	// ErrEmptyInput is returned for blank geometry text.
	ErrEmptyInput = errors.New("geo: empty input")
	// ErrEmptyGeometry is returned when the text parses to a shape without coordinates.
	ErrEmptyGeometry = errors.New("geo: geometry has no coordinates")
)

// ParseError reports text that could not be read as a geometry in the given format.
type ParseError struct {
	Format Format
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("geo: invalid %s: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse reads text as a geometry in the given format and tags it with crs.
// No coordinate math is performed.
func Parse(text string, format Format, crs string) (Geometry, error) {
	var (
		shape orb.Geometry
		err   error
	)

	if strings.TrimSpace(text) == "" {
		err = ErrEmptyInput
	} else {
		switch format {
		case FormatWKT:
			shape, err = parseWKT(text)
		case FormatGeoJSON:
			shape, err = parseGeoJSON([]byte(text))
		default:
			err = fmt.Errorf("unsupported format %s", format)
		}
	}

	if err == nil && isEmpty(shape) {
		err = ErrEmptyGeometry
	}
	if err == nil && !allFinite(shape) {
		err = ErrNonFinite
	}
	if err != nil {
		return Geometry{}, &ParseError{Format: format, Err: err}
	}

	return Geometry{Shape: shape, CRS: crs}, nil
}

// ParseWKT is Parse with FormatWKT.
func ParseWKT(text, crs string) (Geometry, error) {
	return Parse(text, FormatWKT, crs)
}

// ParseGeoJSON is Parse with FormatGeoJSON.
func ParseGeoJSON(text, crs string) (Geometry, error) {
	return Parse(text, FormatGeoJSON, crs)
}

func parseWKT(text string) (orb.Geometry, error) {
	// keywords are case-insensitive; numbers survive upper-casing
	s := strings.ToUpper(strings.TrimSpace(text))
	if strings.HasSuffix(s, "EMPTY") {
		return nil, ErrEmptyGeometry
	}
	if strings.Count(s, "(") != strings.Count(s, ")") {
		return nil, errors.New("unbalanced parentheses")
	}
	if err := checkWKTTokens(s); err != nil {
		return nil, err
	}

	return wkt.Unmarshal(s)
}

var (
	wktToken  = regexp.MustCompile(`[(),]|[^\s(),]+`)
	wktNumber = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?$`)
)

var wktKeywords = map[string]bool{
	"POINT":              true,
	"LINESTRING":         true,
	"POLYGON":            true,
	"MULTIPOINT":         true,
	"MULTILINESTRING":    true,
	"MULTIPOLYGON":       true,
	"GEOMETRYCOLLECTION": true,
}

// checkWKTTokens rejects anything orb would read leniently: non-decimal numbers
// (NaN, Inf, hex floats, digit separators), unknown words and empty list elements.
func checkWKTTokens(s string) error {
	prev := ""
	for _, tok := range wktToken.FindAllString(s, -1) {
		switch tok {
		case "(":
		case ",", ")":
			if prev == "" || prev == "(" || prev == "," {
				return fmt.Errorf("unexpected %q", tok)
			}
		default:
			if !wktKeywords[tok] && !wktNumber.MatchString(tok) {
				return fmt.Errorf("unsupported token %q", tok)
			}
		}
		prev = tok
	}
	return nil
}

// rawGeoJSON is the subset of members inspected before handing the object to orb.
type rawGeoJSON struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
	Geometries  json.RawMessage `json:"geometries"`
	Geometry    json.RawMessage `json:"geometry"`
}

// positionDepth is the array nesting above a single position for each geometry type.
var positionDepth = map[string]int{
	"Point":           0,
	"MultiPoint":      1,
	"LineString":      1,
	"MultiLineString": 2,
	"Polygon":         2,
	"MultiPolygon":    3,
}

func parseGeoJSON(data []byte) (orb.Geometry, error) {
	var raw rawGeoJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	switch raw.Type {
	case "":
		return nil, errors.New("missing type")
	case "Feature":
		if isNull(raw.Geometry) {
			return nil, errors.New("feature without geometry")
		}
		return parseGeoJSON(raw.Geometry)
	case "FeatureCollection":
		return nil, errors.New("feature collections are not supported, paste a single geometry")
	case "GeometryCollection":
		if isNull(raw.Geometries) {
			return nil, errors.New("missing geometries")
		}
		var members []json.RawMessage
		if err := json.Unmarshal(raw.Geometries, &members); err != nil {
			return nil, fmt.Errorf("geometries: %w", err)
		}
		c := make(orb.Collection, 0, len(members))
		for i, m := range members {
			g, err := parseGeoJSON(m)
			if err != nil {
				return nil, fmt.Errorf("geometries[%d]: %w", i, err)
			}
			c = append(c, g)
		}
		return c, nil
	}

	depth, ok := positionDepth[raw.Type]
	if !ok {
		return nil, fmt.Errorf("unknown type %q", raw.Type)
	}
	if isNull(raw.Coordinates) {
		return nil, errors.New("missing coordinates")
	}

	var coords any
	if err := json.Unmarshal(raw.Coordinates, &coords); err != nil {
		return nil, fmt.Errorf("coordinates: %w", err)
	}
	if err := checkPositions(coords, depth); err != nil {
		return nil, fmt.Errorf("coordinates: %w", err)
	}

	g, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return nil, err
	}

	return g.Geometry(), nil
}

// checkPositions verifies v is nested depth arrays deep with numeric positions of
// two or more values at the bottom.
func checkPositions(v any, depth int) error {
	arr, ok := v.([]any)
	if !ok {
		return errors.New("expected an array")
	}

	if depth == 0 {
		if len(arr) < 2 {
			return errors.New("position needs at least two values")
		}
		for _, n := range arr {
			if _, ok := n.(float64); !ok {
				return errors.New("position values must be numbers")
			}
		}
		return nil
	}

	for _, child := range arr {
		if err := checkPositions(child, depth-1); err != nil {
			return err
		}
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
