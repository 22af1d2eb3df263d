package orch

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/guessthesong/internal/app"
	"github.com/dkeye/guessthesong/internal/core"
	"github.com/dkeye/guessthesong/internal/core/coretest"
	"github.com/dkeye/guessthesong/internal/domain"
	"github.com/dkeye/guessthesong/internal/playback/playbacktest"
	"github.com/dkeye/guessthesong/internal/render"
)

const room domain.RoomID = "room"

var (
	alice = domain.User{ID: "alice", Username: "alice"}
	bob   = domain.User{ID: "bob", Username: "bob"}
	carol = domain.User{ID: "carol", Username: "carol"}
)

type fetcherFunc func(ctx context.Context, ref string) (domain.Playlist, error)

func (f fetcherFunc) Fetch(ctx context.Context, ref string) (domain.Playlist, error) { return f(ctx, ref) }

var playlists = map[string]domain.Playlist{
	"rock": {Name: "Rock", Tracks: []domain.Track{
		{ID: "r1", Title: "Rock One", Artists: []string{"Band"}},
		{ID: "shared", Title: "Shared", Artists: []string{"Both"}},
	}},
	"pop": {Name: "Pop", Tracks: []domain.Track{
		{ID: "shared", Title: "Shared", Artists: []string{"Both"}},
		{ID: "p1", Title: "Pop One", Artists: []string{"Singer"}},
	}},
	"extra": {Name: "Extra", Tracks: []domain.Track{
		{ID: "e1", Title: "Extra One", Artists: []string{"Someone"}},
	}},
}

type fixture struct {
	orch    *Orchestrator
	gateway *coretest.Gateway
	engine  *playbacktest.Engine
}

func newFixture(t *testing.T, settings Settings) *fixture {
	t.Helper()
	cat := app.NewCatalog(fetcherFunc(func(_ context.Context, ref string) (domain.Playlist, error) {
		l, ok := playlists[ref]
		if !ok {
			return domain.Playlist{}, errors.New("not found")
		}
		return l, nil
	}))
	require.NoError(t, cat.Load(context.Background(), []app.CatalogEntry{{Ref: "rock"}, {Ref: "pop"}}))

	f := &fixture{gateway: coretest.NewGateway(), engine: playbacktest.NewEngine()}
	f.gateway.EnterVoice(room, alice.ID, bob.ID)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	f.orch = New(ctx, app.NewRegistry(), cat, f.gateway, playbacktest.NewResolver(), f.engine, settings)
	f.orch.Shuffle = func(int, func(i, j int)) {}
	t.Cleanup(func() { f.orch.Shutdown(context.Background()) })
	return f
}

func (f *fixture) waitPlaying(t *testing.T, id string) {
	t.Helper()
	require.Eventually(t, func() bool {
		tr, ok := f.engine.Playing(room)
		return ok && tr.ID == id
	}, time.Second, 5*time.Millisecond)
}

func (f *fixture) waitClosed(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool {
		_, ok := f.orch.Registry.Get(room)
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestPlayRequiresVoice(t *testing.T) {
	f := newFixture(t, Settings{})
	f.orch.Play(context.Background(), room, carol, 5)

	assert.Equal(t, msgNotInVoice, f.gateway.LastReply())
	_, ok := f.orch.Registry.Get(room)
	assert.False(t, ok)
}

func TestPlayAllowList(t *testing.T) {
	f := newFixture(t, Settings{Rooms: []domain.RoomID{"elsewhere"}})
	f.orch.Play(context.Background(), room, alice, 5)
	assert.Equal(t, msgRoomNotAllowed, f.gateway.LastReply())

	f.orch.UpdateSettings(Settings{Rooms: []domain.RoomID{room}})
	f.orch.Play(context.Background(), room, alice, 5)
	_, ok := f.orch.Registry.Get(room)
	assert.True(t, ok)
}

func TestPlayOpensSingleLobby(t *testing.T) {
	f := newFixture(t, Settings{})
	f.orch.Play(context.Background(), room, alice, 5)

	assert.True(t, f.gateway.Connected(room))
	lobby := f.gateway.Last(room)
	assert.Equal(t, "⚙️ Game Settings", lobby.Title)
	assert.Contains(t, lobby.Reactions, render.JoinReaction)

	f.orch.Play(context.Background(), room, bob, 5)
	assert.Equal(t, msgAlreadyRunning, f.gateway.LastReply())
}

func TestReactJoinsOnlyVoiceMembers(t *testing.T) {
	f := newFixture(t, Settings{})
	f.orch.Play(context.Background(), room, alice, 5)

	f.orch.React(context.Background(), room, bob, true)
	f.orch.React(context.Background(), room, carol, true)

	s, ok := f.orch.Registry.Get(room)
	require.True(t, ok)
	assert.True(t, s.IsPlayer(bob.ID))
	assert.False(t, s.IsPlayer(carol.ID))

	doc := f.gateway.Last(room)
	_, field := doc.Field(render.FieldPlayers)
	require.NotNil(t, field)
	assert.Contains(t, field.Value, "@bob")

	f.orch.React(context.Background(), room, bob, false)
	assert.False(t, s.IsPlayer(bob.ID))
}

func TestSelectPlaylistsCreatorOnly(t *testing.T) {
	f := newFixture(t, Settings{})
	f.orch.Play(context.Background(), room, alice, 5)
	f.orch.SelectPlaylists(context.Background(), room, bob.ID, []string{"Rock"})

	assert.Equal(t, "Only when @alice has selected the playlists will the game begin.", f.gateway.LastReply())
	s, _ := f.orch.Registry.Get(room)
	assert.Equal(t, domain.StateNotStarted, s.State())
}

func TestSelectPlaylistsPlaysDeduplicatedUnion(t *testing.T) {
	f := newFixture(t, Settings{})
	ctx := context.Background()
	f.orch.Play(ctx, room, alice, 10)
	f.orch.SelectPlaylists(ctx, room, alice.ID, []string{"Rock", "Pop"})

	s, ok := f.orch.Registry.Get(room)
	require.True(t, ok)
	info := s.Info()
	assert.Equal(t, 3, info.Rounds, "sample is capped at the distinct tracks available")
	assert.Equal(t, []string{"Rock", "Pop"}, info.Sources)

	f.waitPlaying(t, "r1")
	assert.Equal(t, core.TitleGuessed, f.orch.Message(ctx, room, core.Message{ID: "m1", Author: alice.ID, Content: "rock one"}))
	f.waitPlaying(t, "shared")

	f.orch.End(ctx, room, alice.ID)
	assert.Equal(t, msgStopped, f.gateway.LastReply())
	f.waitClosed(t)
	assert.False(t, f.gateway.Connected(room))
	assert.Equal(t, "🛑 Game Over 🛑", f.gateway.Last(room).Title)
}

func TestSelectPlaylistsSamples(t *testing.T) {
	f := newFixture(t, Settings{})
	ctx := context.Background()
	f.orch.Play(ctx, room, alice, 1)
	f.orch.SelectPlaylists(ctx, room, alice.ID, []string{"Pop"})

	s, _ := f.orch.Registry.Get(room)
	assert.Equal(t, 1, s.Info().Rounds)
	f.waitPlaying(t, "shared")

	_, forced := s.SkipVote(ctx, alice.ID)
	assert.True(t, forced)
	f.waitClosed(t)
}

func TestAddPlaylistOffersItInLobby(t *testing.T) {
	f := newFixture(t, Settings{})
	ctx := context.Background()
	f.orch.Play(ctx, room, alice, 1)
	f.orch.AddPlaylist(ctx, room, bob.ID, "extra")

	lobby := f.gateway.Last(room)
	var options []string
	for _, c := range lobby.Controls {
		if c.ID == render.ControlPlaylists {
			for _, o := range c.Options {
				options = append(options, o.Label)
			}
		}
	}
	require.Len(t, options, 3)
	assert.True(t, strings.HasPrefix(options[2], "Extra"), options[2])

	f.orch.AddPlaylist(ctx, room, bob.ID, "missing")
	assert.Equal(t, "Could not load that playlist.", f.gateway.LastReply())

	f.orch.SelectPlaylists(ctx, room, alice.ID, []string{"Extra"})
	f.waitPlaying(t, "e1")
	f.orch.End(ctx, room, alice.ID)
	f.waitClosed(t)

	f.orch.mu.RLock()
	defer f.orch.mu.RUnlock()
	assert.Empty(t, f.orch.extras)
}

func TestPresenceLeftRemovesPlayerMidGame(t *testing.T) {
	f := newFixture(t, Settings{})
	ctx := context.Background()
	f.orch.Play(ctx, room, alice, 2)
	f.orch.React(ctx, room, bob, true)

	f.orch.PresenceLeft(ctx, room, bob.ID)
	s, _ := f.orch.Registry.Get(room)
	assert.True(t, s.IsPlayer(bob.ID), "presence only matters once the game runs")

	f.orch.SelectPlaylists(ctx, room, alice.ID, []string{"Rock"})
	f.waitPlaying(t, "r1")
	f.orch.PresenceLeft(ctx, room, bob.ID)
	assert.False(t, s.IsPlayer(bob.ID))
	assert.Len(t, f.orch.Rooms(), 1)
}

func TestEndWithoutGame(t *testing.T) {
	f := newFixture(t, Settings{})
	f.orch.End(context.Background(), room, alice.ID)
	assert.Equal(t, msgNoGame, f.gateway.LastReply())

	f.orch.Play(context.Background(), room, alice, 3)
	f.orch.End(context.Background(), room, alice.ID)
	assert.Equal(t, msgStopped, f.gateway.LastReply())
	f.waitClosed(t)
	assert.Empty(t, f.orch.Rooms())
}
