// Package geo parses textual geometry descriptions and reprojects them
// between coordinate reference systems.
package geo

import (
	"fmt"
	"strings"
)

// Format is the text encoding of a geometry description.
type Format int

const (
	// FormatWKT is Well-Known-Text.
	FormatWKT Format = iota
	// FormatGeoJSON is a GeoJSON geometry object.
	FormatGeoJSON
)

// String returns the selector value of the format, "WKT" or "GEOJSON".
func (f Format) String() string {
	switch f {
	case FormatWKT:
		return "WKT"
	case FormatGeoJSON:
		return "GEOJSON"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat converts a selector value into a Format. Matching is case-insensitive.
func ParseFormat(s string) (Format, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "WKT":
		return FormatWKT, nil
	case "GEOJSON", "JSON":
		return FormatGeoJSON, nil
	default:
		return 0, fmt.Errorf("geo: unknown format %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Format) UnmarshalText(b []byte) error {
	v, err := ParseFormat(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}
