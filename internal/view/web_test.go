package view

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/Leggit/geovis-lite/internal/feature"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWeb() *Web {
	return NewWeb(Options{Zoom: 2, BaseLayerVisible: true})
}

func TestWeb_Lifecycle(t *testing.T) {
	w := newTestWeb()

	h, err := w.CreateView("map")
	require.NoError(t, err)
	assert.Equal(t, 1, w.Views())

	s, err := w.Snapshot(h)
	require.NoError(t, err)
	assert.Equal(t, "map", s.Target)
	assert.Equal(t, 2.0, s.Zoom)
	assert.True(t, s.BaseLayerVisible)
	assert.Nil(t, s.Feature)

	require.NoError(t, w.DestroyView(h))
	assert.Equal(t, 0, w.Views())
	assert.ErrorIs(t, w.DestroyView(h), ErrUnknownView)

	_, err = w.Snapshot(h)
	assert.ErrorIs(t, err, ErrUnknownView)
	assert.ErrorIs(t, w.SetBaseLayerVisible(h, false), ErrUnknownView)
}

func TestWeb_EmptyTarget(t *testing.T) {
	_, err := newTestWeb().CreateView("")
	assert.Error(t, err)
}

func TestWeb_FitToExtent(t *testing.T) {
	w := newTestWeb()
	h, err := w.CreateView("map")
	require.NoError(t, err)

	b := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{10, 20}}
	require.NoError(t, w.FitToExtent(h, b))

	s, err := w.Snapshot(h)
	require.NoError(t, err)
	require.NotNil(t, s.Fit)
	assert.Equal(t, b, *s.Fit)
	assert.Equal(t, orb.Point{5, 10}, s.Center)
	assert.Equal(t, uint64(1), s.FitRevision)

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, []any{0.0, 0.0, 10.0, 20.0}, decoded["fit"])
	assert.Equal(t, []any{5.0, 10.0}, decoded["center"])
}

func TestWeb_RenderFeature(t *testing.T) {
	w := newTestWeb()
	h, err := w.CreateView("map")
	require.NoError(t, err)

	require.NoError(t, w.RenderFeature(h, &feature.Feature{Geometry: orb.Point{1, 2}, ID: 1}))
	require.NoError(t, w.RenderFeature(h, &feature.Feature{Geometry: orb.Point{3, 4}, ID: 2}))

	s, err := w.Snapshot(h)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"type":"Feature","id":2,"geometry":{"type":"Point","coordinates":[3,4]},"properties":{}}`,
		string(s.Feature))
	assert.Equal(t, uint64(2), s.Revision)

	require.NoError(t, w.RenderFeature(h, nil))
	s, err = w.Snapshot(h)
	require.NoError(t, err)
	assert.Nil(t, s.Feature)
}

func TestWeb_FitToExtentRejectsNonFinite(t *testing.T) {
	w := newTestWeb()
	h, err := w.CreateView("map")
	require.NoError(t, err)

	for _, b := range []orb.Bound{
		{Min: orb.Point{math.NaN(), 1}, Max: orb.Point{math.NaN(), 1}},
		{Min: orb.Point{0, 0}, Max: orb.Point{math.Inf(1), 1}},
	} {
		assert.ErrorIs(t, w.FitToExtent(h, b), ErrInvalidExtent)
	}

	s, err := w.Snapshot(h)
	require.NoError(t, err)
	assert.Nil(t, s.Fit)
	assert.Equal(t, uint64(0), s.FitRevision)

	_, err = json.Marshal(s)
	assert.NoError(t, err)
}

func TestWeb_RenderFeatureEncodeFailureClears(t *testing.T) {
	w := newTestWeb()
	h, err := w.CreateView("map")
	require.NoError(t, err)

	require.NoError(t, w.RenderFeature(h, &feature.Feature{Geometry: orb.Point{1, 2}, ID: 1}))
	assert.Error(t, w.RenderFeature(h, &feature.Feature{Geometry: orb.Point{math.NaN(), 2}, ID: 2}))

	s, err := w.Snapshot(h)
	require.NoError(t, err)
	assert.Nil(t, s.Feature)
}

func TestWeb_SnapshotIsCopy(t *testing.T) {
	w := newTestWeb()
	h, err := w.CreateView("map")
	require.NoError(t, err)
	require.NoError(t, w.FitToExtent(h, orb.Bound{Max: orb.Point{1, 1}}))

	s, err := w.Snapshot(h)
	require.NoError(t, err)
	s.Fit.Max = orb.Point{99, 99}
	s.BaseLayerVisible = false

	again, err := w.Snapshot(h)
	require.NoError(t, err)
	assert.Equal(t, orb.Point{1, 1}, again.Fit.Max)
	assert.True(t, again.BaseLayerVisible)
}
