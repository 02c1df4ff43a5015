package main

import (
	"os"
	"path/filepath"

	"github.com/Leggit/geovis-lite/assets"
	"github.com/Leggit/geovis-lite/internal/logger"
	"github.com/Leggit/geovis-lite/internal/server"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger Options"`

	OutDir string `short:"o" long:"out" description:"Directory for the minified page" default:"dist" env:"MINIFY_OUT"`
	Title  string `short:"t" long:"title" description:"Page title" env:"MINIFY_TITLE"`
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

	title := opts.Title
	if title == "" {
		title = server.Title
	}

	page, err := assets.Build(title)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build page")
	}

	if err := os.MkdirAll(opts.OutDir, 0755); err != nil {
		log.Fatal().Err(err).Str("dir", opts.OutDir).Msg("Failed to create output directory")
	}

	files := map[string][]byte{
		"index.html":  page.Index,
		"favicon.svg": page.Favicon,
	}
	for name, data := range files {
		path := filepath.Join(opts.OutDir, name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("Failed to write file")
		}
		log.Info().Str("path", path).Int("bytes", len(data)).Msg("Written")
	}

	log.Info().Msg("Minify done")
}
