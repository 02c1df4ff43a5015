package geo

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// ErrNonFinite is returned when a transformed coordinate is NaN or infinite.
var ErrNonFinite = errors.New("geo: non-finite coordinate")

// ReprojectError reports a failed transform between two reference systems.
type ReprojectError struct {
	From string
	To   string
	Err  error
}

func (e *ReprojectError) Error() string {
	return fmt.Sprintf("geo: reproject %s -> %s: %v", e.From, e.To, e.Err)
}

func (e *ReprojectError) Unwrap() error { return e.Err }

// Reproject transforms every vertex of g from one reference system to another.
// The input is never modified. Equal identifiers, or identifiers resolving to the
// same system, return g unchanged. Topology is preserved: only coordinate values change.
func Reproject(g orb.Geometry, from, to string) (orb.Geometry, error) {
	if !allFinite(g) {
		return nil, &ReprojectError{From: from, To: to, Err: ErrNonFinite}
	}
	if from == to {
		return g, nil
	}

	src, err := Lookup(from)
	if err != nil {
		return nil, &ReprojectError{From: from, To: to, Err: err}
	}
	dst, err := Lookup(to)
	if err != nil {
		return nil, &ReprojectError{From: from, To: to, Err: err}
	}
	if src.EPSG() == dst.EPSG() {
		return g, nil
	}

	out := project.Geometry(orb.Clone(g), func(p orb.Point) orb.Point {
		return dst.FromWGS84(src.ToWGS84(p))
	})
	if !allFinite(out) {
		return nil, &ReprojectError{From: from, To: to, Err: ErrNonFinite}
	}

	return out, nil
}
