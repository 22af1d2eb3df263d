// Package orch turns room gateway events into game operations.
package orch

import (
	"context"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"

	"github.com/dkeye/guessthesong/internal/app"
	"github.com/dkeye/guessthesong/internal/core"
	"github.com/dkeye/guessthesong/internal/domain"
	"github.com/dkeye/guessthesong/internal/playback"
	"github.com/dkeye/guessthesong/internal/scoring"
)

const (
	msgAlreadyRunning = "The game is already running"
	msgNotInVoice     = "You are not connected to a voice channel."
	msgNoGame         = "There's no game running"
	msgStopped        = "🛑 Game stopped!"
	msgRoomNotAllowed = "Games are not enabled in this room."
	msgNoPlaylist     = "Select at least one playlist."
	msgBadSongs       = "The number of songs must be positive."
)

// Settings apply to every game the orchestrator creates.
type Settings struct {
	Points      scoring.Points
	Suppression core.Suppression
	// Rooms is the allow-list. Empty allows every room.
	Rooms []domain.RoomID
}

type Orchestrator struct {
	Registry *app.Registry
	Catalog  *app.Catalog
	Gateway  core.RoomGateway
	Resolver playback.Resolver
	Engine   playback.Engine

	// Shuffle permutes candidate songs before sampling.
	Shuffle func(n int, swap func(i, j int))

	mu       sync.RWMutex
	settings Settings
	extras   map[domain.RoomID][]domain.Playlist

	ctx   context.Context
	games conc.WaitGroup
}

// New wires an orchestrator. Games run under ctx, not under the context
// of the event that started them.
func New(ctx context.Context, reg *app.Registry, cat *app.Catalog, gw core.RoomGateway,
	r playback.Resolver, e playback.Engine, settings Settings) *Orchestrator {
	return &Orchestrator{
		Registry: reg,
		Catalog:  cat,
		Gateway:  gw,
		Resolver: r,
		Engine:   e,
		Shuffle:  rand.Shuffle,
		settings: settings,
		extras:   make(map[domain.RoomID][]domain.Playlist),
		ctx:      ctx,
	}
}

// UpdateSettings affects games created afterwards.
func (o *Orchestrator) UpdateSettings(s Settings) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.settings = s
	log.Info().Str("module", "app.orch").Int("rooms", len(s.Rooms)).Str("suppression", string(s.Suppression)).Msg("settings updated")
}

func (o *Orchestrator) currentSettings() Settings {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.settings
}

func (o *Orchestrator) allowed(room domain.RoomID) bool {
	rooms := o.currentSettings().Rooms
	return len(rooms) == 0 || slices.Contains(rooms, room)
}

// Rooms lists the running games.
func (o *Orchestrator) Rooms() []core.Info {
	sessions := o.Registry.List()
	out := make([]core.Info, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Info())
	}
	return out
}

// Shutdown ends every game and waits for their teardown.
func (o *Orchestrator) Shutdown(ctx context.Context) {
	for _, s := range o.Registry.List() {
		s.End(ctx)
	}
	o.games.Wait()
	log.Info().Str("module", "app.orch").Msg("all games stopped")
}

func (o *Orchestrator) reply(ctx context.Context, room domain.RoomID, user domain.UserID, text string) {
	if err := o.Gateway.Reply(ctx, room, user, text); err != nil {
		log.Warn().Str("module", "app.orch").Str("room", string(room)).Err(err).Msg("reply failed")
	}
}

func (o *Orchestrator) session(room domain.RoomID) (*core.Session, bool) {
	return o.Registry.Get(room)
}

func (o *Orchestrator) closed(room domain.RoomID) {
	o.Registry.Delete(room)
	o.mu.Lock()
	delete(o.extras, room)
	o.mu.Unlock()
}
