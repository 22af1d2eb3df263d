package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/guessthesong/internal/domain"
)

type fetcherFunc func(ctx context.Context, ref string) (domain.Playlist, error)

func (f fetcherFunc) Fetch(ctx context.Context, ref string) (domain.Playlist, error) { return f(ctx, ref) }

var errBroken = errors.New("broken")

func fixedFetcher() Fetcher {
	return fetcherFunc(func(_ context.Context, ref string) (domain.Playlist, error) {
		if ref == "broken" {
			return domain.Playlist{}, errBroken
		}
		return domain.Playlist{
			Name:   "from-" + ref,
			Tracks: []domain.Track{{ID: ref + "-1"}, {ID: ref + "-2"}},
		}, nil
	})
}

func TestCatalogLoadKeepsOrderAndSkipsFailures(t *testing.T) {
	c := NewCatalog(fixedFetcher())
	err := c.Load(context.Background(), []CatalogEntry{
		{Label: "Rock", Emoji: "🎸", Ref: "rock"},
		{Label: "Broken", Ref: "broken"},
		{Ref: "pop"},
		{Label: "Jazz", Ref: "jazz"},
	})
	require.NoError(t, err)

	lists := c.List()
	require.Len(t, lists, 3)
	assert.Equal(t, "Rock", lists[0].Name)
	assert.Equal(t, "🎸", lists[0].Emoji)
	assert.Equal(t, "rock", lists[0].Ref)
	assert.Equal(t, "from-pop", lists[1].Name)
	assert.Equal(t, "Jazz", lists[2].Name)

	rock, ok := c.Get("Rock")
	require.True(t, ok)
	assert.Equal(t, 2, rock.Len())
	_, ok = c.Get("Broken")
	assert.False(t, ok)
}

func TestCatalogLoadFailuresDoNotDropLaterEntries(t *testing.T) {
	c := NewCatalog(fixedFetcher())
	entries := []CatalogEntry{{Label: "Broken", Ref: "broken"}}
	for _, ref := range []string{"a", "b", "c", "d", "e", "f"} {
		entries = append(entries, CatalogEntry{Ref: ref}, CatalogEntry{Ref: "broken"})
	}
	require.NoError(t, c.Load(context.Background(), entries))

	lists := c.List()
	require.Len(t, lists, 6)
	for i, ref := range []string{"a", "b", "c", "d", "e", "f"} {
		assert.Equal(t, "from-"+ref, lists[i].Name)
	}
}

func TestCatalogLoadAllFailed(t *testing.T) {
	c := NewCatalog(fixedFetcher())
	err := c.Load(context.Background(), []CatalogEntry{{Label: "Broken", Ref: "broken"}})
	assert.ErrorIs(t, err, errBroken)
	assert.Empty(t, c.List())
}

func TestCatalogReloadReplaces(t *testing.T) {
	c := NewCatalog(fixedFetcher())
	require.NoError(t, c.Load(context.Background(), []CatalogEntry{{Label: "Rock", Ref: "rock"}}))
	require.NoError(t, c.Load(context.Background(), []CatalogEntry{{Label: "Pop", Ref: "pop"}}))

	_, ok := c.Get("Rock")
	assert.False(t, ok)
	_, ok = c.Get("Pop")
	assert.True(t, ok)
}

func TestOptions(t *testing.T) {
	opts := Options([]domain.Playlist{{Name: "Rock", Emoji: "🎸", Tracks: make([]domain.Track, 3)}})
	require.Len(t, opts, 1)
	assert.Equal(t, "Rock", opts[0].Name)
	assert.Equal(t, 3, opts[0].Songs)
}
