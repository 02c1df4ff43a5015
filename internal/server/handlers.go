// Package server handles HTTP requests and middleware.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Leggit/geovis-lite/internal/controller"
	"github.com/Leggit/geovis-lite/internal/geo"
	"github.com/Leggit/geovis-lite/internal/tiles"
	"github.com/Leggit/geovis-lite/internal/view"

	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 1 << 20

// StateResponse is returned by every state endpoint.
type StateResponse struct {
	Status controller.Status `json:"status"`
	View   view.Snapshot     `json:"view"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// HandleIndex serves the main HTML application.
func (s *ServerContext) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	etag := s.IndexETag

	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")
	_, _ = w.Write(s.IndexHTML)
}

// HandleFavicon serves the site icon.
func (s *ServerContext) HandleFavicon(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(s.Favicon)
}

// HandleConfig serves the public part of the configuration.
func (s *ServerContext) HandleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Config)
}

// HandleProjections lists the reference systems the reprojector understands.
func (s *ServerContext) HandleProjections(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, geo.Known())
}

// HandleState returns the controller status and view snapshot.
func (s *ServerContext) HandleState(w http.ResponseWriter, r *http.Request) {
	s.respond(w, s.Controller.Status(), nil)
}

// HandleInput delivers an edited geometry text to the controller.
func (s *ServerContext) HandleInput(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text *string `json:"text"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Text == nil {
		writeError(w, http.StatusBadRequest, "missing text")
		return
	}

	st, err := s.Controller.InputChanged(*req.Text)
	s.respond(w, st, err)
}

// HandleFormat switches the input format.
func (s *ServerContext) HandleFormat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Format string `json:"format"`
	}
	if !decode(w, r, &req) {
		return
	}

	f, err := geo.ParseFormat(req.Format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	st, err := s.Controller.FormatChanged(f)
	s.respond(w, st, err)
}

// HandleProjection changes the declared source projection. It is not validated here.
func (s *ServerContext) HandleProjection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Projection string `json:"projection"`
	}
	if !decode(w, r, &req) {
		return
	}

	st, err := s.Controller.ProjectionChanged(req.Projection)
	s.respond(w, st, err)
}

// HandleZoom fits the view to the active feature.
func (s *ServerContext) HandleZoom(w http.ResponseWriter, r *http.Request) {
	st, err := s.Controller.ZoomToFeature()
	s.respond(w, st, err)
}

// HandleToggleBaseLayer flips the base layer visibility.
func (s *ServerContext) HandleToggleBaseLayer(w http.ResponseWriter, r *http.Request) {
	st, err := s.Controller.ToggleBaseLayer()
	s.respond(w, st, err)
}

// HandleTile serves a base layer tile as WebP.
func (s *ServerContext) HandleTile(w http.ResponseWriter, r *http.Request) {
	c, ok := parseTile(r.PathValue("z"), r.PathValue("x"), r.PathValue("y"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	data, err := s.Tiles.Tile(r.Context(), c)
	switch {
	case errors.Is(err, tiles.ErrOutOfRange):
		http.NotFound(w, r)
		return
	case err != nil:
		if !errors.Is(err, tiles.ErrNotFound) {
			log.Warn().Err(err).Str("tile", c.String()).Msg("Serving transparent tile")
		}
		w.Header().Set("Content-Type", "image/webp")
		w.Header().Set("Cache-Control", "public, max-age=60")
		_, _ = w.Write(s.Tiles.Transparent())
		return
	}

	w.Header().Set("Content-Type", "image/webp")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(data)
}

func (s *ServerContext) respond(w http.ResponseWriter, st controller.Status, err error) {
	code := http.StatusOK
	switch {
	case errors.Is(err, controller.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	case errors.Is(err, controller.ErrZoomNotPermitted):
		code = http.StatusConflict
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	snap, err := s.View.Snapshot(s.Controller.Handle())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	writeJSON(w, code, StateResponse{Status: st, View: snap})
}

func parseTile(zs, xs, ys string) (tiles.Coordinate, bool) {
	ys, found := strings.CutSuffix(ys, ".webp")
	if !found {
		return tiles.Coordinate{}, false
	}

	z, errZ := strconv.Atoi(zs)
	x, errX := strconv.Atoi(xs)
	y, errY := strconv.Atoi(ys)
	if errZ != nil || errX != nil || errY != nil {
		return tiles.Coordinate{}, false
	}

	return tiles.Coordinate{Z: z, X: x, Y: y}, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
		code = http.StatusInternalServerError
		data, _ = json.Marshal(errorResponse{Error: "encode response: " + err.Error()})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	// Ignoring error as we cannot handle client disconnects
	_, _ = w.Write(append(data, '\n'))
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}
