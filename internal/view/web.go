package view

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/Leggit/geovis-lite/internal/feature"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
)

// ErrInvalidExtent is returned by FitToExtent for bounds with non-finite corners.
var ErrInvalidExtent = errors.New("view: extent is not finite")

// Options are the initial view parameters of every created view.
type Options struct {
	Center           orb.Point // display space
	Zoom             float64
	BaseLayerVisible bool
}

// Snapshot is everything a browser needs to reproduce a view.
type Snapshot struct {
	Target           string          `json:"target"`
	Center           orb.Point       `json:"center"`
	Zoom             float64         `json:"zoom"`
	BaseLayerVisible bool            `json:"base_layer_visible"`
	Feature          json.RawMessage `json:"feature,omitempty"` // GeoJSON Feature in display space
	Fit              *orb.Bound      `json:"fit,omitempty"`
	FitRevision      uint64          `json:"fit_revision"`
	Revision         uint64          `json:"revision"`
}

// MarshalJSON writes Fit as an OpenLayers extent [minX, minY, maxX, maxY].
func (s Snapshot) MarshalJSON() ([]byte, error) {
	type alias Snapshot
	out := struct {
		alias
		Fit *[4]float64 `json:"fit,omitempty"`
	}{alias: alias(s)}
	if s.Fit != nil {
		out.Fit = &[4]float64{s.Fit.Min[0], s.Fit.Min[1], s.Fit.Max[0], s.Fit.Max[1]}
	}
	return json.Marshal(out)
}

// Web keeps view state in process for a browser front end that renders it.
type Web struct {
	mu    sync.Mutex
	opts  Options
	next  Handle
	views map[Handle]*Snapshot
}

// NewWeb returns an adapter whose views start from opts.
func NewWeb(opts Options) *Web {
	return &Web{
		opts:  opts,
		views: make(map[Handle]*Snapshot),
	}
}

// CreateView mounts a new view on the given page element id.
func (w *Web) CreateView(target string) (Handle, error) {
	if target == "" {
		return 0, fmt.Errorf("view: empty target")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.next++
	h := w.next
	w.views[h] = &Snapshot{
		Target:           target,
		Center:           w.opts.Center,
		Zoom:             w.opts.Zoom,
		BaseLayerVisible: w.opts.BaseLayerVisible,
	}

	log.Debug().Uint64("view", uint64(h)).Str("target", target).Msg("View created")
	return h, nil
}

// DestroyView releases the view. A second call for the same handle fails.
func (w *Web) DestroyView(h Handle) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.views[h]; !ok {
		return ErrUnknownView
	}
	delete(w.views, h)

	log.Debug().Uint64("view", uint64(h)).Msg("View destroyed")
	return nil
}

// FitToExtent centers the view on b and asks the front end to fit it.
func (w *Web) FitToExtent(h Handle, b orb.Bound) error {
	for _, v := range []float64{b.Min[0], b.Min[1], b.Max[0], b.Max[1]} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrInvalidExtent
		}
	}

	return w.update(h, func(s *Snapshot) error {
		s.Fit = &b
		s.Center = b.Center()
		s.FitRevision++
		return nil
	})
}

// SetBaseLayerVisible shows or hides the base tile layer.
func (w *Web) SetBaseLayerVisible(h Handle, visible bool) error {
	return w.update(h, func(s *Snapshot) error {
		s.BaseLayerVisible = visible
		return nil
	})
}

// RenderFeature replaces the rendered overlay with f; nil clears it.
// A feature that cannot be encoded clears the overlay and returns the error.
func (w *Web) RenderFeature(h Handle, f *feature.Feature) error {
	var (
		data   []byte
		encErr error
	)
	if f != nil {
		gf := geojson.NewFeature(f.Geometry)
		gf.ID = f.ID
		for k, v := range f.Properties {
			gf.Properties[k] = v
		}

		data, encErr = json.Marshal(gf)
		if encErr != nil {
			data = nil
			encErr = fmt.Errorf("view: encode feature: %w", encErr)
		}
	}

	if err := w.update(h, func(s *Snapshot) error {
		s.Feature = data
		return nil
	}); err != nil {
		return err
	}
	return encErr
}

// Snapshot returns a copy of the view state.
func (w *Web) Snapshot(h Handle) (Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	s, ok := w.views[h]
	if !ok {
		return Snapshot{}, ErrUnknownView
	}

	out := *s
	if s.Fit != nil {
		fit := *s.Fit
		out.Fit = &fit
	}
	return out, nil
}

// Views returns the number of live views.
func (w *Web) Views() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.views)
}

func (w *Web) update(h Handle, fn func(s *Snapshot) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	s, ok := w.views[h]
	if !ok {
		return ErrUnknownView
	}
	if err := fn(s); err != nil {
		return err
	}
	s.Revision++
	return nil
}
