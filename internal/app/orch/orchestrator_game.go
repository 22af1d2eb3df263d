package orch

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/guessthesong/internal/core"
	"github.com/dkeye/guessthesong/internal/domain"
)

// Message routes a chat message to room's game.
func (o *Orchestrator) Message(ctx context.Context, room domain.RoomID, msg core.Message) core.Outcome {
	s, ok := o.session(room)
	if !ok {
		return core.Ignored
	}
	return s.OnMessage(ctx, msg)
}

// Skip toggles user's vote to skip the current song.
func (o *Orchestrator) Skip(ctx context.Context, room domain.RoomID, user domain.UserID) {
	s, ok := o.session(room)
	if !ok {
		return
	}
	voters, forced := s.SkipVote(ctx, user)
	log.Debug().Str("module", "app.orch").Str("room", string(room)).Str("user", string(user)).
		Int("voters", len(voters)).Bool("forced", forced).Msg("skip vote")
}

// End stops room's game, started or not.
func (o *Orchestrator) End(ctx context.Context, room domain.RoomID, user domain.UserID) {
	s, ok := o.session(room)
	if !ok {
		o.reply(ctx, room, user, msgNoGame)
		return
	}
	s.End(ctx)
	o.reply(ctx, room, user, msgStopped)
	log.Info().Str("module", "app.orch").Str("room", string(room)).Str("user", string(user)).Msg("game ended by user")
}

// Status summarizes room's game.
func (o *Orchestrator) Status(room domain.RoomID) (core.Info, bool) {
	s, ok := o.session(room)
	if !ok {
		return core.Info{}, false
	}
	return s.Info(), true
}
