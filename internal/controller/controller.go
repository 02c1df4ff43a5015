// Package controller keeps the map in sync with the geometry input form.
//
// A Controller is the only writer of the feature store and of the error state.
// Every event runs to completion under a mutex before the next one is accepted,
// so a later input always supersedes an earlier one and never interleaves with it.
package controller

import (
	"errors"
	"sync"

	"github.com/Leggit/geovis-lite/internal/feature"
	"github.com/Leggit/geovis-lite/internal/geo"
	"github.com/Leggit/geovis-lite/internal/view"

	"github.com/rs/zerolog/log"
)

var (
	// ErrClosed is returned for events delivered after Close.
	ErrClosed = errors.New("controller: closed")
	// ErrZoomNotPermitted is returned by ZoomToFeature while there is an error or no feature.
	ErrZoomNotPermitted = errors.New("controller: zoom not permitted")
)

// State of the last input attempt.
type State int

const (
	// Idle means no input has been processed yet.
	Idle State = iota
	// Error means the last attempt failed; the previous feature is retained.
	Error
	// Ready means the store reflects the latest input.
	Ready
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Error:
		return "error"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Status is the UI-facing view of the controller.
type Status struct {
	State            State      `json:"state"`
	Error            *string    `json:"error"`
	CanZoom          bool       `json:"can_zoom"`
	BaseLayerVisible bool       `json:"base_layer_visible"`
	Format           geo.Format `json:"format"`
	Projection       string     `json:"projection"`
	Revision         uint64     `json:"revision"`
}

// Controller orchestrates parse, reproject and replace for every input change.
type Controller struct {
	mu sync.Mutex

	adapter view.Adapter
	handle  view.Handle
	store   *feature.Store

	state       State
	errMsg      *string
	format      geo.Format
	projection  string
	baseVisible bool
	closed      bool
}

// Option configures a Controller during construction.
type Option func(*Controller)

// WithFormat sets the initial input format.
func WithFormat(f geo.Format) Option {
	return func(c *Controller) { c.format = f }
}

// WithProjection sets the initial declared source reference system.
func WithProjection(crs string) Option {
	return func(c *Controller) { c.projection = crs }
}

// WithBaseLayerVisible sets the initial base layer visibility.
func WithBaseLayerVisible(visible bool) Option {
	return func(c *Controller) { c.baseVisible = visible }
}

// New mounts a view on target and returns a controller in the Idle state.
// The view is released by Close.
func New(adapter view.Adapter, target string, opts ...Option) (*Controller, error) {
	c := &Controller{
		adapter:     adapter,
		state:       Idle,
		format:      geo.FormatWKT,
		projection:  geo.DefaultSourceCRS,
		baseVisible: true,
	}
	for _, opt := range opts {
		opt(c)
	}

	h, err := adapter.CreateView(target)
	if err != nil {
		return nil, err
	}
	c.handle = h
	c.store = feature.NewStore(feature.RendererFunc(func(f *feature.Feature) error {
		return adapter.RenderFeature(h, f)
	}))

	if err := adapter.SetBaseLayerVisible(h, c.baseVisible); err != nil {
		_ = adapter.DestroyView(h)
		return nil, err
	}

	log.Debug().
		Str("format", c.format.String()).
		Str("projection", c.projection).
		Bool("base_layer", c.baseVisible).
		Msg("Controller mounted")

	return c, nil
}

// Handle returns the view handle owned by the controller.
func (c *Controller) Handle() view.Handle {
	return c.handle
}

// InputChanged parses text with the current format and projection and, on success,
// replaces the active feature with its display-space reprojection. On failure the
// error state is set and the previous feature is left untouched.
func (c *Controller) InputChanged(text string) (Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Status{}, ErrClosed
	}

	c.errMsg = nil

	g, err := geo.Parse(text, c.format, c.projection)
	if err == nil {
		g, err = g.To(geo.DisplayCRS)
	}
	if err != nil {
		msg := "Invalid " + c.format.String()
		c.errMsg = &msg
		c.state = Error
		log.Debug().Err(err).Str("format", c.format.String()).Str("projection", c.projection).Msg("Input rejected")
		return c.status(), nil
	}

	if err := c.store.Replace(g.Shape); err != nil {
		log.Error().Err(err).Uint64("view", uint64(c.handle)).Msg("Failed to render feature")
	}
	c.state = Ready

	return c.status(), nil
}

// FormatChanged updates the format used by the next input. Existing text is not re-parsed.
func (c *Controller) FormatChanged(f geo.Format) (Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Status{}, ErrClosed
	}
	c.format = f
	return c.status(), nil
}

// ProjectionChanged updates the declared source reference system used by the next input.
// The identifier is validated lazily, on the next reprojection.
func (c *Controller) ProjectionChanged(crs string) (Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Status{}, ErrClosed
	}
	c.projection = crs
	return c.status(), nil
}

// ZoomToFeature fits the view to the active feature. It does nothing and returns
// ErrZoomNotPermitted while the error state is set or the store is empty.
func (c *Controller) ZoomToFeature() (Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Status{}, ErrClosed
	}
	if !c.canZoom() {
		return c.status(), ErrZoomNotPermitted
	}

	b, _ := c.store.Extent()
	if err := c.adapter.FitToExtent(c.handle, b); err != nil {
		log.Error().Err(err).Uint64("view", uint64(c.handle)).Msg("Failed to fit view")
	}
	return c.status(), nil
}

// ToggleBaseLayer flips base layer visibility, independently of the parse state.
func (c *Controller) ToggleBaseLayer() (Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Status{}, ErrClosed
	}

	c.baseVisible = !c.baseVisible
	if err := c.adapter.SetBaseLayerVisible(c.handle, c.baseVisible); err != nil {
		log.Error().Err(err).Uint64("view", uint64(c.handle)).Msg("Failed to set base layer visibility")
	}
	return c.status(), nil
}

// Status returns the current UI-facing state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status()
}

// State returns the state of the last input attempt.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Feature returns a copy of the active feature, or nil.
func (c *Controller) Feature() *feature.Feature {
	return c.store.Current()
}

// Close releases the view. Only the first call has an effect.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	log.Debug().Uint64("view", uint64(c.handle)).Msg("Controller unmounted")
	return c.adapter.DestroyView(c.handle)
}

func (c *Controller) canZoom() bool {
	return c.errMsg == nil && !c.store.Empty()
}

func (c *Controller) status() Status {
	st := Status{
		State:            c.state,
		CanZoom:          c.canZoom(),
		BaseLayerVisible: c.baseVisible,
		Format:           c.format,
		Projection:       c.projection,
		Revision:         c.store.Revision(),
	}
	if c.errMsg != nil {
		msg := *c.errMsg
		st.Error = &msg
	}
	return st
}
