package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Leggit/geovis-lite/internal/geo"

	"github.com/jessevdk/go-flags"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"
	"gopkg.in/yaml.v3"
)

type Options struct {
	Input  string `short:"i" long:"in" description:"Input file path. Reads from stdin if empty"`
	Output string `short:"O" long:"out" description:"Output file path. Writes to stdout if empty"`
	Format string `short:"f" long:"format" description:"Input format" choice:"wkt" choice:"geojson" default:"wkt"`
	From   string `short:"s" long:"source" description:"Source reference system" default:"EPSG:4326"`
	To     string `short:"t" long:"target" description:"Target reference system" default:"EPSG:3857"`
	Emit   string `short:"o" long:"output-format" description:"Output format" choice:"wkt" choice:"geojson" choice:"yaml" default:"geojson"`
}

// yamlGeometry is the YAML rendering of a reprojected geometry.
type yamlGeometry struct {
	CRS      string `yaml:"crs"`
	Geometry any    `yaml:"geometry"`
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

	// Read Input
	var inputData []byte
	var err error

	if opts.Input != "" {
		inputData, err = os.ReadFile(opts.Input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading input file: %v\n", err)
			os.Exit(1)
		}
	} else {
		inputData, err = io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading stdin: %v\n", err)
			os.Exit(1)
		}
	}

	outputData, err := convert(opts, inputData)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if opts.Output != "" {
		err = os.WriteFile(opts.Output, outputData, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Successfully reprojected %s -> %s to %s (format: %s)\n", opts.From, opts.To, opts.Output, opts.Emit)
	} else {
		fmt.Println(string(outputData))
	}
}

// convert parses input, reprojects it and encodes it in the requested output format.
func convert(opts Options, input []byte) ([]byte, error) {
	format, err := geo.ParseFormat(opts.Format)
	if err != nil {
		return nil, err
	}

	g, err := geo.Parse(string(input), format, opts.From)
	if err != nil {
		return nil, err
	}
	g, err = g.To(opts.To)
	if err != nil {
		return nil, err
	}

	switch opts.Emit {
	case "wkt":
		return wkt.Marshal(g.Shape), nil
	case "yaml":
		data, err := json.Marshal(geojson.NewGeometry(g.Shape))
		if err != nil {
			return nil, err
		}
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return nil, err
		}
		return yaml.Marshal(yamlGeometry{CRS: g.CRS, Geometry: generic})
	default:
		return json.MarshalIndent(geojson.NewGeometry(g.Shape), "", "  ")
	}
}
