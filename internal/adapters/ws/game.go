package ws

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/guessthesong/internal/domain"
	"github.com/dkeye/guessthesong/internal/render"
)

// inRoom resolves the caller's room and identity, replying with an error
// when the caller has not joined one.
func (ctl *Controller) inRoom(uid domain.UserID) (domain.RoomID, domain.User, bool) {
	room, ok := ctl.Hub.RoomOf(uid)
	if !ok {
		ctl.sendJSON(uid, errFrame("not_in_room"))
		return "", domain.User{}, false
	}
	user, ok := ctl.Registry.User(uid)
	if !ok {
		ctl.sendJSON(uid, errFrame("unknown_user"))
		return "", domain.User{}, false
	}
	return room, user, true
}

func (ctl *Controller) handlePlay(ctx context.Context, uid domain.UserID, data []byte) {
	var p struct {
		Songs int `json:"songs"`
	}
	if err := decode(data, &p); err != nil {
		ctl.sendJSON(uid, errFrame("bad_payload"))
		return
	}
	room, user, ok := ctl.inRoom(uid)
	if !ok {
		return
	}
	log.Info().Str("module", "ws").Str("room", string(room)).Str("user", string(uid)).Int("songs", p.Songs).Msg("play")
	ctl.Handler.Play(ctx, room, user, p.Songs)
}

func (ctl *Controller) handleReact(ctx context.Context, uid domain.UserID, data []byte) {
	var p struct {
		Emoji string `json:"emoji"`
		Added bool   `json:"added"`
	}
	if err := decode(data, &p); err != nil {
		ctl.sendJSON(uid, errFrame("bad_payload"))
		return
	}
	if p.Emoji != render.JoinReaction {
		return
	}
	room, user, ok := ctl.inRoom(uid)
	if !ok {
		return
	}
	ctl.Handler.React(ctx, room, user, p.Added)
}

func (ctl *Controller) handleControl(ctx context.Context, uid domain.UserID, data []byte) {
	var p struct {
		ID     string   `json:"id"`
		Values []string `json:"values"`
	}
	if err := decode(data, &p); err != nil {
		ctl.sendJSON(uid, errFrame("bad_payload"))
		return
	}
	room, _, ok := ctl.inRoom(uid)
	if !ok {
		return
	}

	switch p.ID {
	case render.ControlSkip:
		ctl.Handler.Skip(ctx, room, uid)
	case render.ControlPlaylists:
		ctl.Handler.SelectPlaylists(ctx, room, uid, p.Values)
	case render.ControlAddPlaylist:
		if len(p.Values) == 0 || p.Values[0] == "" {
			ctl.sendJSON(uid, errFrame("missing_playlist"))
			return
		}
		ctl.Handler.AddPlaylist(ctx, room, uid, p.Values[0])
	default:
		log.Warn().Str("module", "ws").Str("control", p.ID).Msg("unknown control")
		ctl.sendJSON(uid, errFrame("unknown_control"))
	}
}

func (ctl *Controller) handleChat(ctx context.Context, uid domain.UserID, data []byte) {
	var p struct {
		Text string `json:"text"`
	}
	if err := decode(data, &p); err != nil {
		ctl.sendJSON(uid, errFrame("bad_payload"))
		return
	}
	if p.Text == "" {
		return
	}
	room, user, ok := ctl.inRoom(uid)
	if !ok {
		return
	}
	if !ctl.Limiter.Allow(uid) {
		ctl.sendJSON(uid, errFrame("rate_limited"))
		return
	}
	msg := ctl.Hub.Post(room, user, p.Text)
	ctl.Handler.Message(ctx, room, msg)
}

func (ctl *Controller) handleEnd(ctx context.Context, uid domain.UserID) {
	room, _, ok := ctl.inRoom(uid)
	if !ok {
		return
	}
	ctl.Handler.End(ctx, room, uid)
}
