package tiles

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

// PrefetchResult counts the outcome of a Prefetch run.
type PrefetchResult struct {
	Fetched int
	Cached  int
	Missing int
	Failed  int
}

type result struct {
	Coord  Coordinate
	Cached bool
	Err    error
}

// Prefetch fills the cache for every tile from zoom 0 to maxZoom, level by level.
// Children of tiles missing upstream are skipped.
func (p *Proxy) Prefetch(ctx context.Context, maxZoom, concurrency int) (PrefetchResult, error) {
	var total PrefetchResult

	if maxZoom > p.maxZoom {
		maxZoom = p.maxZoom
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	level := []Coordinate{{0, 0, 0}}
	for z := 0; z <= maxZoom && len(level) > 0; z++ {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		log.Debug().Int("zoom", z).Int("count", len(level)).Msg("Prefetching zoom level")

		present := p.processBatch(ctx, concurrency, level, &total)

		next := make([]Coordinate, 0, len(present)*4)
		for _, t := range present {
			nx, ny := t.X*2, t.Y*2
			next = append(next,
				Coordinate{Z: z + 1, X: nx, Y: ny},
				Coordinate{Z: z + 1, X: nx + 1, Y: ny},
				Coordinate{Z: z + 1, X: nx, Y: ny + 1},
				Coordinate{Z: z + 1, X: nx + 1, Y: ny + 1},
			)
		}
		level = next
	}

	return total, ctx.Err()
}

func (p *Proxy) processBatch(ctx context.Context, concurrency int, tiles []Coordinate, total *PrefetchResult) []Coordinate {
	jobs := make(chan Coordinate, len(tiles))
	results := make(chan result, len(tiles))

	for _, t := range tiles {
		jobs <- t
	}
	close(jobs)

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				if p.Cached(c) {
					results <- result{Coord: c, Cached: true}
					continue
				}
				_, err := p.Tile(ctx, c)
				if err != nil && !errors.Is(err, ErrNotFound) {
					log.Trace().Err(err).Str("tile", c.String()).Msg("Failed to prefetch tile")
				}
				results <- result{Coord: c, Err: err}
			}
		}()
	}
	wg.Wait()
	close(results)

	var present []Coordinate
	for res := range results {
		switch {
		case res.Cached:
			total.Cached++
		case errors.Is(res.Err, ErrNotFound):
			total.Missing++
			continue
		case res.Err != nil:
			total.Failed++
			continue
		default:
			total.Fetched++
		}
		present = append(present, res.Coord)
	}

	return present
}
