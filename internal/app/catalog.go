package app

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"

	"github.com/dkeye/guessthesong/internal/domain"
	"github.com/dkeye/guessthesong/internal/render"
)

// Fetcher loads a playlist from a provider reference such as
// "spotify:playlist:<id>" or "file://rock.yaml".
type Fetcher interface {
	Fetch(ctx context.Context, ref string) (domain.Playlist, error)
}

// CatalogEntry is a configured playlist before it was fetched.
type CatalogEntry struct {
	Label string
	Emoji string
	Ref   string
}

const maxConcurrentFetches = 4

// Catalog holds the playlists every new game can choose from.
type Catalog struct {
	fetcher Fetcher

	mu    sync.RWMutex
	lists []domain.Playlist
}

func NewCatalog(f Fetcher) *Catalog {
	return &Catalog{fetcher: f}
}

// Load fetches all entries concurrently and replaces the catalog with the
// ones that succeeded, in entry order. It fails only when none did.
func (c *Catalog) Load(ctx context.Context, entries []CatalogEntry) error {
	type loaded struct {
		index int
		list  domain.Playlist
		ok    bool
	}

	// Failed tasks are collected as well and filtered on ok below.
	p := pool.NewWithResults[loaded]().WithContext(ctx).WithCollectErrored().WithMaxGoroutines(maxConcurrentFetches)
	for i, e := range entries {
		p.Go(func(ctx context.Context) (loaded, error) {
			list, err := c.Fetch(ctx, e.Ref)
			if err != nil {
				log.Warn().Str("module", "app.catalog").Str("ref", e.Ref).Err(err).Msg("playlist not loaded")
				return loaded{}, fmt.Errorf("%s: %w", e.Label, err)
			}
			if e.Label != "" {
				list.Name = e.Label
			}
			if e.Emoji != "" {
				list.Emoji = e.Emoji
			}
			return loaded{index: i, list: list, ok: true}, nil
		})
	}
	all, err := p.Wait()
	results := all[:0]
	for _, r := range all {
		if r.ok {
			results = append(results, r)
		}
	}
	if err != nil && len(results) == 0 && len(entries) > 0 {
		return err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].index < results[j].index })
	lists := make([]domain.Playlist, 0, len(results))
	for _, r := range results {
		lists = append(lists, r.list)
	}

	c.mu.Lock()
	c.lists = lists
	c.mu.Unlock()
	log.Info().Str("module", "app.catalog").Int("playlists", len(lists)).Int("configured", len(entries)).Msg("catalog loaded")
	return nil
}

// Fetch loads a single playlist without adding it to the catalog.
func (c *Catalog) Fetch(ctx context.Context, ref string) (domain.Playlist, error) {
	list, err := c.fetcher.Fetch(ctx, ref)
	if err != nil {
		return domain.Playlist{}, err
	}
	if list.Ref == "" {
		list.Ref = ref
	}
	return list, nil
}

func (c *Catalog) Get(name string) (domain.Playlist, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, l := range c.lists {
		if l.Name == name {
			return l, true
		}
	}
	return domain.Playlist{}, false
}

func (c *Catalog) List() []domain.Playlist {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.Playlist(nil), c.lists...)
}

// Options renders lists as lobby choices.
func Options(lists []domain.Playlist) []render.PlaylistOption {
	out := make([]render.PlaylistOption, 0, len(lists))
	for _, l := range lists {
		out = append(out, Option(l))
	}
	return out
}

func Option(l domain.Playlist) render.PlaylistOption {
	return render.PlaylistOption{Name: l.Name, Emoji: l.Emoji, Songs: l.Len()}
}
