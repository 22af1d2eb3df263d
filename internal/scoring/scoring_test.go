package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/guessthesong/internal/domain"
)

func round(title string, artists ...string) *domain.Round {
	return domain.NewRound(1, domain.Track{ID: title, Title: title, Artists: artists})
}

func TestMatchesTitle(t *testing.T) {
	track := domain.Track{Title: "Café (Remix)"}
	assert.True(t, MatchesTitle("cafe", track))
	assert.True(t, MatchesTitle("CAFÉ", track))
	assert.False(t, MatchesTitle("coffee", track))
	assert.False(t, MatchesTitle("", domain.Track{Title: "(Intro)"}))
}

func TestCheckTitleAwardsOnce(t *testing.T) {
	r := round("Song A", "X", "Y")
	alice := &domain.Player{ID: "alice"}
	bob := &domain.Player{ID: "bob"}

	pts, ok := CheckTitle(alice, r, "song a", DefaultPoints)
	require.True(t, ok)
	assert.Equal(t, 10, pts)

	_, ok = CheckTitle(bob, r, "Song A", DefaultPoints)
	assert.False(t, ok)

	assert.Equal(t, 10, alice.Points)
	assert.Equal(t, 0, bob.Points)
	require.NotNil(t, r.Ledger.Title)
	assert.Equal(t, "alice", string(r.Ledger.Title.Player.ID))
	assert.Equal(t, "song a", r.Ledger.Title.Text)
	assert.Equal(t, "Song A", TitleView(r))
}

func TestCheckTitleMiss(t *testing.T) {
	r := round("Song A")
	p := &domain.Player{ID: "p"}
	_, ok := CheckTitle(p, r, "Song B", DefaultPoints)
	assert.False(t, ok)
	assert.Nil(t, r.Ledger.Title)
	assert.Zero(t, p.Points)
	assert.Equal(t, "???", TitleView(r))
}

func TestCheckArtistIntegerDivision(t *testing.T) {
	r := round("Song", "X", "Y", "Z")
	p := &domain.Player{ID: "p"}

	view := ArtistsView(r)
	assert.Equal(t, "???", view)

	total := 0
	for _, guess := range []string{"x", "y", "z", "x", "y", "z"} {
		hit, ok := CheckArtist(p, r, guess, view, DefaultPoints)
		if !ok {
			continue
		}
		assert.Equal(t, 3, hit.Points)
		total += hit.Points
		view = hit.View
	}
	assert.Equal(t, 9, total)
	assert.Equal(t, 9, p.Points)
	assert.Equal(t, "X, Y, Z", view)
	assert.True(t, r.AllArtistsRevealed())
}

func TestCheckArtistRevealedNotRescored(t *testing.T) {
	r := round("Song", "X", "Y")
	alice := &domain.Player{ID: "alice"}
	bob := &domain.Player{ID: "bob"}

	hit, ok := CheckArtist(alice, r, "y", ArtistsView(r), DefaultPoints)
	require.True(t, ok)
	assert.False(t, hit.Complete)
	assert.Equal(t, "Y, ???", hit.View)

	_, ok = CheckArtist(bob, r, "Y", hit.View, DefaultPoints)
	assert.False(t, ok)

	hit, ok = CheckArtist(bob, r, "x", hit.View, DefaultPoints)
	require.True(t, ok)
	assert.True(t, hit.Complete)
	assert.Equal(t, "X, Y", hit.View)

	entries := r.Ledger.ArtistEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, alice, entries[0].Player)
	assert.Equal(t, 5, entries[0].Total())
	assert.Equal(t, "Y", entries[0].Guesses[0].Artist)
	assert.Equal(t, bob, entries[1].Player)
}

func TestCheckArtistAppendsToExistingEntry(t *testing.T) {
	r := round("Song", "X", "Y")
	p := &domain.Player{ID: "p"}
	view := ArtistsView(r)
	hit, ok := CheckArtist(p, r, "x", view, DefaultPoints)
	require.True(t, ok)
	_, ok = CheckArtist(p, r, "y", hit.View, DefaultPoints)
	require.True(t, ok)

	entry, ok := r.Ledger.ArtistsOf("p")
	require.True(t, ok)
	assert.Len(t, entry.Guesses, 2)
	assert.Len(t, r.Ledger.ArtistEntries(), 1)
}

func TestCheckArtistMiss(t *testing.T) {
	r := round("Song", "X")
	p := &domain.Player{ID: "p"}
	_, ok := CheckArtist(p, r, "nobody", ArtistsView(r), DefaultPoints)
	assert.False(t, ok)
	_, ok = CheckArtist(p, r, "", ArtistsView(r), DefaultPoints)
	assert.False(t, ok)
	assert.Empty(t, r.Ledger.ArtistEntries())
	assert.Zero(t, p.Points)
}
