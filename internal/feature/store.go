// Package feature holds the single active feature shown on the map.
package feature

import (
	"sync"

	"github.com/paulmach/orb"
)

// Feature wraps exactly one display-space geometry.
type Feature struct {
	Geometry   orb.Geometry
	Properties map[string]any
	ID         uint64 // revision at which the feature was installed
}

// Bound returns the extent of the feature geometry.
func (f *Feature) Bound() orb.Bound {
	return f.Geometry.Bound()
}

// Renderer is notified with the new feature after every replacement.
type Renderer interface {
	RenderFeature(f *Feature) error
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(f *Feature) error

// RenderFeature calls fn(f).
func (fn RendererFunc) RenderFeature(f *Feature) error { return fn(f) }

// Store holds zero or one Feature. Replacement is an atomic swap for readers.
type Store struct {
	mu       sync.RWMutex
	current  *Feature
	revision uint64
	renderer Renderer
}

// NewStore returns an empty store. The renderer may be nil.
func NewStore(r Renderer) *Store {
	return &Store{renderer: r}
}

// Replace discards the previous feature and installs one wrapping g.
// The renderer error, if any, is returned after the swap has happened.
func (s *Store) Replace(g orb.Geometry) error {
	s.mu.Lock()
	s.revision++
	f := &Feature{
		Geometry:   orb.Clone(g),
		Properties: map[string]any{},
		ID:         s.revision,
	}
	s.current = f
	s.mu.Unlock()

	if s.renderer == nil {
		return nil
	}
	return s.renderer.RenderFeature(clone(f))
}

// Current returns a copy of the active feature, or nil when the store is empty.
func (s *Store) Current() *Feature {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	return clone(s.current)
}

// Extent returns the minimal box covering the active feature.
// ok is false when the store is empty.
func (s *Store) Extent() (b orb.Bound, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return orb.Bound{}, false
	}
	return s.current.Bound(), true
}

// Empty reports whether no feature is installed.
func (s *Store) Empty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current == nil
}

// Revision returns the number of replacements so far.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

func clone(f *Feature) *Feature {
	props := make(map[string]any, len(f.Properties))
	for k, v := range f.Properties {
		props[k] = v
	}
	return &Feature{
		Geometry:   orb.Clone(f.Geometry),
		Properties: props,
		ID:         f.ID,
	}
}
