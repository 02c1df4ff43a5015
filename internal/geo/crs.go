package geo

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

const (
	// DisplayCRS is the reference system the map view always renders in.
	DisplayCRS = "EPSG:3857"
	// DefaultSourceCRS is the declared source system until the user changes it.
	DefaultSourceCRS = "EPSG:4326"
)

// ErrUnknownCRS is returned for identifiers the registry cannot resolve.
var ErrUnknownCRS = errors.New("geo: unknown coordinate reference system")

// Projection converts between a reference system and WGS84 longitude/latitude.
type Projection interface {
	// ToWGS84 converts coordinates of this system to WGS84 lon/lat (degrees).
	ToWGS84(p orb.Point) orb.Point

	// FromWGS84 converts WGS84 lon/lat (degrees) to coordinates of this system.
	FromWGS84(p orb.Point) orb.Point

	// EPSG returns the EPSG code of the system.
	EPSG() int
}

var registry = map[int]Projection{
	4326: wgs84{},
	3857: webMercator{},
	2056: swissLV95{},
}

// aliases map deprecated or vendor codes onto registry entries.
var aliases = map[int]int{
	900913: 3857,
	3785:   3857,
	102100: 3857,
	102113: 3857,
}

var namedCRS = map[string]int{
	"CRS:84":                        4326,
	"WGS84":                         4326,
	"URN:OGC:DEF:CRS:OGC:1.3:CRS84": 4326,
	"URN:OGC:DEF:CRS:OGC::CRS84":    4326,
}

var crsPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^EPSG:(\d+)$`),
	regexp.MustCompile(`^URN:OGC:DEF:CRS:EPSG:(?:[^:]*:)*(\d+)$`),
	regexp.MustCompile(`^HTTPS?://WWW\.OPENGIS\.NET/DEF/CRS/EPSG/[^/]+/(\d+)$`),
	regexp.MustCompile(`^HTTPS?://WWW\.OPENGIS\.NET/GML/SRS/EPSG\.XML#(\d+)$`),
}

// Lookup resolves a reference system identifier such as "EPSG:4326".
func Lookup(id string) (Projection, error) {
	code, err := epsgCode(id)
	if err != nil {
		return nil, err
	}
	if target, ok := aliases[code]; ok {
		code = target
	}
	p, ok := registry[code]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCRS, id)
	}
	return p, nil
}

// Known returns the canonical identifiers of every supported system, aliases included.
func Known() []string {
	codes := make([]int, 0, len(registry)+len(aliases))
	for c := range registry {
		codes = append(codes, c)
	}
	for c := range aliases {
		codes = append(codes, c)
	}
	sort.Ints(codes)

	ids := make([]string, len(codes))
	for i, c := range codes {
		ids[i] = "EPSG:" + strconv.Itoa(c)
	}
	return ids
}

func epsgCode(id string) (int, error) {
	s := strings.ToUpper(strings.TrimSpace(id))
	if code, ok := namedCRS[s]; ok {
		return code, nil
	}
	for _, re := range crsPatterns {
		m := re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		code, err := strconv.Atoi(m[1])
		if err != nil {
			break
		}
		return code, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCRS, id)
}

// wgs84 is the identity projection for EPSG:4326.
type wgs84 struct{}

func (wgs84) ToWGS84(p orb.Point) orb.Point   { return p }
func (wgs84) FromWGS84(p orb.Point) orb.Point { return p }
func (wgs84) EPSG() int                       { return 4326 }
