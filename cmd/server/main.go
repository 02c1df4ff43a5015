package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Leggit/geovis-lite/internal/config"
	"github.com/Leggit/geovis-lite/internal/controller"
	"github.com/Leggit/geovis-lite/internal/logger"
	"github.com/Leggit/geovis-lite/internal/server"
	"github.com/Leggit/geovis-lite/internal/tiles"
	"github.com/Leggit/geovis-lite/internal/view"

	"github.com/jessevdk/go-flags"
	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config"    env:"CONFIG_FILE"    description:"Path to configuration file (defaults are used when empty)"`
	Addr       string `short:"a" long:"addr"      env:"LISTEN_ADDRESS" description:"Address to listen on"       default:"0.0.0.0"`
	Port       int    `short:"p" long:"port"      env:"LISTEN_PORT"    description:"Port to listen on"          default:"8080"`
	CacheDir   string `long:"cache-dir"           env:"TILE_CACHE_DIR" description:"Override tile cache directory"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	// Setup Logging
	opts.Logger.Setup()

	// Load Config
	cfg := config.Default()
	if opts.ConfigFile != "" {
		var err error
		cfg, err = config.Load(opts.ConfigFile)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}
	}
	if opts.CacheDir != "" {
		cfg.BaseLayer.CacheDir = opts.CacheDir
	}

	proxy, err := tiles.New(cfg.BaseLayer, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create tile proxy")
	}

	// Mount the view; it is released on shutdown
	web := view.NewWeb(view.Options{
		Center:           orb.Point(cfg.View.Center),
		Zoom:             cfg.View.Zoom,
		BaseLayerVisible: *cfg.BaseLayer.Visible,
	})
	ctrl, err := controller.New(web, cfg.View.Target,
		controller.WithFormat(cfg.Format()),
		controller.WithProjection(cfg.Defaults.Projection),
		controller.WithBaseLayerVisible(*cfg.BaseLayer.Visible),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to mount view")
	}
	defer func() {
		if err := ctrl.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to release view")
		}
	}()

	srvCtx, err := server.NewServerContext(cfg, ctrl, web, proxy)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build page")
	}

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           srvCtx.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Graceful shutdown failed")
		}
	}()

	log.Info().
		Str("addr", listenAddr).
		Str("base_layer", cfg.BaseLayer.Name).
		Str("format", cfg.Defaults.Format).
		Str("projection", cfg.Defaults.Projection).
		Msg("Web server started")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("Server failed")
		return
	}

	log.Info().Msg("Web server stopped")
}
