package orch

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/guessthesong/internal/app"
	"github.com/dkeye/guessthesong/internal/core"
	"github.com/dkeye/guessthesong/internal/domain"
)

const addedPlaylistEmoji = "➕"

// Play opens a lobby in room with author as creator.
func (o *Orchestrator) Play(ctx context.Context, room domain.RoomID, author domain.User, songs int) {
	logger := log.With().Str("module", "app.orch").Str("room", string(room)).Str("user", string(author.ID)).Logger()

	if !o.allowed(room) {
		o.reply(ctx, room, author.ID, msgRoomNotAllowed)
		return
	}
	if songs <= 0 {
		o.reply(ctx, room, author.ID, msgBadSongs)
		return
	}
	if !o.Gateway.InVoice(room, author.ID) {
		o.reply(ctx, room, author.ID, msgNotInVoice)
		return
	}

	settings := o.currentSettings()
	s, err := o.Registry.Create(room, func() *core.Session {
		return core.NewSession(core.Settings{
			Room:        room,
			Creator:     domain.NewPlayer(&author),
			Songs:       songs,
			Points:      settings.Points,
			Suppression: settings.Suppression,
		}, core.Deps{
			Gateway:  o.Gateway,
			Resolver: o.Resolver,
			Engine:   o.Engine,
			OnClosed: o.closed,
		})
	})
	if err != nil {
		o.reply(ctx, room, author.ID, msgAlreadyRunning)
		return
	}

	if err := o.Gateway.ConnectVoice(ctx, room, author.ID); err != nil {
		logger.Warn().Err(err).Msg("voice connect failed")
		s.End(ctx)
		o.reply(ctx, room, author.ID, msgNotInVoice)
		return
	}
	s.OpenLobby(ctx, app.Options(o.Catalog.List()))
	logger.Info().Int("songs", songs).Msg("lobby opened")
}

// React toggles user's participation. Only users present in the room's
// voice channel can join or leave.
func (o *Orchestrator) React(ctx context.Context, room domain.RoomID, user domain.User, added bool) {
	s, ok := o.session(room)
	if !ok || s.State() == domain.StateEnded {
		return
	}
	if !o.Gateway.InVoice(room, user.ID) {
		return
	}
	if added {
		s.AddPlayer(domain.NewPlayer(&user))
	} else {
		s.RemovePlayer(user.ID)
	}
	s.Refresh(ctx)
}

// PresenceLeft handles a user leaving the voice channel mid-game.
func (o *Orchestrator) PresenceLeft(ctx context.Context, room domain.RoomID, user domain.UserID) {
	s, ok := o.session(room)
	if !ok || s.State() != domain.StateStarted {
		return
	}
	s.RemovePlayer(user)
	s.Refresh(ctx)
}

// SelectPlaylists samples the game's songs from the named playlists and
// starts it. Only the creator can do this.
func (o *Orchestrator) SelectPlaylists(ctx context.Context, room domain.RoomID, user domain.UserID, names []string) {
	s, ok := o.session(room)
	if !ok {
		o.reply(ctx, room, user, msgNoGame)
		return
	}
	if creator := s.Creator(); creator.ID != user {
		o.reply(ctx, room, user, fmt.Sprintf("Only when %s has selected the playlists will the game begin.", creator.Mention()))
		return
	}
	if s.State() != domain.StateNotStarted {
		o.reply(ctx, room, user, msgAlreadyRunning)
		return
	}
	if len(names) == 0 {
		o.reply(ctx, room, user, msgNoPlaylist)
		return
	}

	logger := log.With().Str("module", "app.orch").Str("room", string(room)).Logger()
	pool := o.selected(room, names)
	songs := o.sample(pool, s.Songs())

	if err := s.AddSongs(songs, names); err != nil {
		if errors.Is(err, core.ErrSongsAlreadyAdded) {
			o.reply(ctx, room, user, msgAlreadyRunning)
		}
		return
	}
	logger.Info().Strs("playlists", names).Int("candidates", len(pool)).Int("songs", len(songs)).Msg("songs selected")

	o.games.Go(func() {
		if err := s.Start(o.ctx); err != nil {
			logger.Error().Err(err).Msg("game stopped with error")
		}
	})
}

// AddPlaylist fetches ref and offers it in room's lobby.
func (o *Orchestrator) AddPlaylist(ctx context.Context, room domain.RoomID, user domain.UserID, ref string) {
	s, ok := o.session(room)
	if !ok {
		o.reply(ctx, room, user, msgNoGame)
		return
	}
	if s.State() != domain.StateNotStarted {
		o.reply(ctx, room, user, msgAlreadyRunning)
		return
	}

	list, err := o.Catalog.Fetch(ctx, ref)
	if err != nil {
		log.Warn().Str("module", "app.orch").Str("room", string(room)).Str("ref", ref).Err(err).Msg("add playlist")
		o.reply(ctx, room, user, "Could not load that playlist.")
		return
	}
	if list.Emoji == "" {
		list.Emoji = addedPlaylistEmoji
	}

	o.mu.Lock()
	o.extras[room] = append(o.extras[room], list)
	o.mu.Unlock()
	s.AddOption(ctx, app.Option(list))
}

// selected returns the union of the named playlists' tracks, first
// occurrence wins. Room additions shadow catalog playlists of the same name.
func (o *Orchestrator) selected(room domain.RoomID, names []string) []domain.Track {
	o.mu.RLock()
	extras := append([]domain.Playlist(nil), o.extras[room]...)
	o.mu.RUnlock()

	lookup := func(name string) (domain.Playlist, bool) {
		for i := len(extras) - 1; i >= 0; i-- {
			if extras[i].Name == name {
				return extras[i], true
			}
		}
		return o.Catalog.Get(name)
	}

	seen := make(map[string]bool)
	var out []domain.Track
	for _, name := range names {
		list, ok := lookup(name)
		if !ok {
			log.Warn().Str("module", "app.orch").Str("room", string(room)).Str("playlist", name).Msg("unknown playlist")
			continue
		}
		for _, t := range list.Tracks {
			if seen[t.ID] {
				continue
			}
			seen[t.ID] = true
			out = append(out, t)
		}
	}
	return out
}

// sample picks n distinct tracks, or all of them when fewer are available.
func (o *Orchestrator) sample(tracks []domain.Track, n int) []domain.Track {
	out := append([]domain.Track(nil), tracks...)
	o.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	if n < len(out) {
		out = out[:n]
	}
	return out
}
