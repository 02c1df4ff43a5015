package server

import (
	"fmt"
	"hash/fnv"
	"net/http"

	"github.com/Leggit/geovis-lite/assets"
	"github.com/Leggit/geovis-lite/internal/config"
	"github.com/Leggit/geovis-lite/internal/controller"
	"github.com/Leggit/geovis-lite/internal/tiles"
	"github.com/Leggit/geovis-lite/internal/view"

	"github.com/rs/zerolog/log"
)

// Title is shown in the page header.
const Title = "GeoVis Lite"

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Config     *config.Config
	Controller *controller.Controller
	View       *view.Web
	Tiles      *tiles.Proxy
	IndexHTML  []byte
	IndexETag  string
	Favicon    []byte
}

// NewServerContext renders the page shell and wires the handlers to a mounted controller.
func NewServerContext(cfg *config.Config, ctrl *controller.Controller, web *view.Web, proxy *tiles.Proxy) (*ServerContext, error) {
	page, err := assets.Build(Title)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("base_layer", proxy.Name()).
		Int("max_zoom", proxy.MaxZoom()).
		Int("index_bytes", len(page.Index)).
		Msg("Server context initialized successfully")

	return &ServerContext{
		Config:     cfg,
		Controller: ctrl,
		View:       web,
		Tiles:      proxy,
		IndexHTML:  page.Index,
		IndexETag:  indexETag(page.Index),
		Favicon:    page.Favicon,
	}, nil
}

func indexETag(data []byte) string {
	h := fnv.New64a()
	_, _ = h.Write(data)
	return fmt.Sprintf(`"%x"`, h.Sum64())
}

// Routes returns the application handler wrapped in the request logger.
func (s *ServerContext) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/config", s.HandleConfig)
	mux.HandleFunc("GET /api/projections", s.HandleProjections)
	mux.HandleFunc("GET /api/state", s.HandleState)
	mux.HandleFunc("POST /api/input", s.HandleInput)
	mux.HandleFunc("PUT /api/format", s.HandleFormat)
	mux.HandleFunc("PUT /api/projection", s.HandleProjection)
	mux.HandleFunc("POST /api/zoom", s.HandleZoom)
	mux.HandleFunc("POST /api/base-layer/toggle", s.HandleToggleBaseLayer)
	mux.HandleFunc("GET /tiles/{z}/{x}/{y}", s.HandleTile)
	mux.HandleFunc("GET /favicon.svg", s.HandleFavicon)
	mux.HandleFunc("GET /", s.HandleIndex)

	return RequestLogger(mux)
}
