// Package tiles proxies the base tile layer: it fetches tiles from the upstream
// provider, transcodes them to WebP and keeps them in a disk cache.
package tiles

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Leggit/geovis-lite/internal/config"

	"github.com/chai2010/webp"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/time/rate"
)

var (
	// ErrOutOfRange is returned for coordinates outside the tile pyramid.
	ErrOutOfRange = errors.New("tiles: coordinate out of range")
	// ErrNotFound is returned when the upstream has no tile at the coordinate.
	ErrNotFound = errors.New("tiles: tile not found upstream")
)

const (
	maxTileBytes = 8 << 20
	// maxPyramidZoom keeps 1<<z well inside int range.
	maxPyramidZoom = 30
)

var subdomains = []string{"a", "b", "c"}

// Coordinate represents a specific tile.
type Coordinate struct {
	Z, X, Y int
}

// Valid reports whether c exists in a pyramid limited to maxZoom.
func (c Coordinate) Valid(maxZoom int) bool {
	if c.Z < 0 || c.Z > maxZoom || c.Z > maxPyramidZoom {
		return false
	}
	n := 1 << c.Z
	return c.X >= 0 && c.X < n && c.Y >= 0 && c.Y < n
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%d/%d/%d", c.Z, c.X, c.Y)
}

// Proxy serves base layer tiles from cache or upstream.
type Proxy struct {
	name        string
	urlTemplate string
	cacheDir    string
	userAgent   string
	maxZoom     int
	tileSize    int

	client      *http.Client
	limiter     *rate.Limiter
	transparent []byte
}

// New builds a proxy for the configured base layer.
// A nil client gets one with the configured timeout.
func New(cfg config.BaseLayer, client *http.Client) (*Proxy, error) {
	if cfg.URL == "" {
		return nil, errors.New("tiles: empty url template")
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	p := &Proxy{
		name:        cfg.Name,
		urlTemplate: cfg.URL,
		cacheDir:    filepath.Join(cfg.CacheDir, cfg.Name),
		userAgent:   cfg.UserAgent,
		maxZoom:     cfg.MaxZoom,
		tileSize:    cfg.TileSize,
		client:      client,
		limiter:     rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst),
	}

	var buf bytes.Buffer
	blank := image.NewNRGBA(image.Rect(0, 0, p.tileSize, p.tileSize))
	if err := webp.Encode(&buf, blank, &webp.Options{Lossless: true}); err != nil {
		return nil, fmt.Errorf("tiles: encode transparent tile: %w", err)
	}
	p.transparent = buf.Bytes()

	return p, nil
}

// Name returns the layer name.
func (p *Proxy) Name() string { return p.name }

// MaxZoom returns the deepest zoom level served.
func (p *Proxy) MaxZoom() int { return p.maxZoom }

// Transparent returns an empty WebP tile used when upstream fails.
func (p *Proxy) Transparent() []byte { return p.transparent }

// Tile returns the WebP encoded tile at c, fetching and caching it on a miss.
func (p *Proxy) Tile(ctx context.Context, c Coordinate) ([]byte, error) {
	if !c.Valid(p.maxZoom) {
		return nil, ErrOutOfRange
	}

	path := p.path(c)
	if data, err := os.ReadFile(path); err == nil && len(data) > 0 {
		return data, nil
	}

	data, err := p.fetch(ctx, c)
	if err != nil {
		return nil, err
	}

	if err := writeAtomic(path, data); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to cache tile")
	}

	return data, nil
}

// Cached reports whether the tile at c is present in the disk cache.
func (p *Proxy) Cached(c Coordinate) bool {
	info, err := os.Stat(p.path(c))
	return err == nil && info.Size() > 0
}

func (p *Proxy) path(c Coordinate) string {
	return filepath.Join(
		p.cacheDir,
		strconv.Itoa(c.Z),
		strconv.Itoa(c.X),
		strconv.Itoa(c.Y)+".webp")
}

func (p *Proxy) fetch(ctx context.Context, c Coordinate) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := BuildURL(p.urlTemplate, c)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		log.Trace().Str("url", url).Msg("Tile not found (404)")
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tiles: upstream status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTileBytes))
	if err != nil {
		return nil, err
	}

	img, format, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("tiles: decode %s: %w", url, err)
	}

	if b := img.Bounds(); b.Dx() != p.tileSize || b.Dy() != p.tileSize {
		dst := image.NewNRGBA(image.Rect(0, 0, p.tileSize, p.tileSize))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Lossless: false, Quality: 80}); err != nil {
		return nil, fmt.Errorf("tiles: encode webp: %w", err)
	}

	log.Trace().Str("url", url).Str("format", format).Int("bytes", buf.Len()).Msg("Tile fetched")
	return buf.Bytes(), nil
}

// BuildURL expands {z}, {x}, {y}, {tms_y} and {s} in a tile URL template.
func BuildURL(tpl string, c Coordinate) string {
	s := strings.ReplaceAll(tpl, "{z}", strconv.Itoa(c.Z))
	s = strings.ReplaceAll(s, "{x}", strconv.Itoa(c.X))
	s = strings.ReplaceAll(s, "{y}", strconv.Itoa(c.Y))

	if strings.Contains(s, "{tms_y}") {
		maxCoord := (1 << c.Z) - 1
		s = strings.ReplaceAll(s, "{tms_y}", strconv.Itoa(maxCoord-c.Y))
	}
	if strings.Contains(s, "{s}") {
		s = strings.ReplaceAll(s, "{s}", subdomains[(c.X+c.Y)%len(subdomains)])
	}

	return s
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	f, err := os.CreateTemp(dir, ".tile-*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, path)
}
