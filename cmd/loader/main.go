package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/Leggit/geovis-lite/internal/config"
	"github.com/Leggit/geovis-lite/internal/logger"
	"github.com/Leggit/geovis-lite/internal/tiles"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

// maxPrefetchZoom keeps the loader away from bulk downloading, which public
// tile providers forbid.
const maxPrefetchZoom = 6

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile  string `short:"c" long:"config"      env:"CONFIG_FILE"    description:"Path to configuration file (defaults are used when empty)"`
	CacheDir    string `long:"cache-dir"             env:"TILE_CACHE_DIR" description:"Override tile cache directory"`
	Concurrency int    `short:"p" long:"concurrency" env:"CONCURRENCY"    description:"Concurrency" default:"4"`
	ZoomLimit   int    `short:"z" long:"zoom-limit"  env:"ZOOM_LIMIT"     description:"Deepest zoom level to prefetch" default:"3"`
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

	opts.Logger.Setup()

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

	if opts.ZoomLimit > maxPrefetchZoom {
		log.Warn().
			Int("requested", opts.ZoomLimit).
			Int("limit", maxPrefetchZoom).
			Msg("Zoom limit capped")
		opts.ZoomLimit = maxPrefetchZoom
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}

	proxy, err := tiles.New(cfg.BaseLayer, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create tile proxy")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Info().
		Str("layer", proxy.Name()).
		Int("zoom_limit", opts.ZoomLimit).
		Int("concurrency", opts.Concurrency).
		Msg("Starting loader")

	res, err := proxy.Prefetch(ctx, opts.ZoomLimit, opts.Concurrency)
	if err != nil {
		log.Error().Err(err).Msg("Prefetch interrupted")
	}

	log.Info().
		Int("fetched", res.Fetched).
		Int("cached", res.Cached).
		Int("missing", res.Missing).
		Int("failed", res.Failed).
		Msg("Loader finished")

	if err != nil || res.Failed > 0 {
		os.Exit(1)
	}
}
