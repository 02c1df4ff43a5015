// Package view is the boundary to the map rendering engine.
//
// The core never draws anything itself: it issues intents through an Adapter
// and relies on the most recent intent being reflected once issued.
package view

import (
	"errors"

	"github.com/Leggit/geovis-lite/internal/feature"

	"github.com/paulmach/orb"
)

// ErrUnknownView is returned for handles that were never created or are already destroyed.
var ErrUnknownView = errors.New("view: unknown view handle")

// Handle identifies a mounted view.
type Handle uint64

// Adapter drives an external map view.
type Adapter interface {
	CreateView(target string) (Handle, error)
	DestroyView(h Handle) error
	FitToExtent(h Handle, b orb.Bound) error
	SetBaseLayerVisible(h Handle, visible bool) error
	RenderFeature(h Handle, f *feature.Feature) error
}
