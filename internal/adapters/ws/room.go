package ws

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/guessthesong/internal/domain"
)

const maxRoomName = 36

func (ctl *Controller) handleJoin(ctx context.Context, uid domain.UserID, data []byte) {
	var p struct {
		Type string `json:"type"`
		Room string `json:"room"`
		Name string `json:"name,omitempty"`
	}
	if err := decode(data, &p); err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("bad join payload")
		ctl.sendJSON(uid, errFrame("bad_payload"))
		return
	}
	raw := p.Room
	if len(raw) > maxRoomName {
		raw = raw[:maxRoomName]
	}
	if raw == "" {
		ctl.sendJSON(uid, errFrame("empty_room"))
		return
	}
	room := domain.RoomID(raw)

	if p.Name != "" {
		if err := ctl.Registry.UpdateUsername(uid, p.Name); err == nil {
			log.Info().Str("module", "ws").Str("user", string(uid)).Str("name", p.Name).Msg("rename on join")
		}
	}

	log.Info().Str("module", "ws").Str("user", string(uid)).Str("room", raw).Msg("join")
	if prev, ok := ctl.Hub.Join(room, uid); ok {
		ctl.left(ctx, prev, uid)
	}

	state := roomStateFrame{Type: "room_state", Room: room, Members: ctl.members(room)}
	state.Count = len(state.Members)
	if id, doc, ok := ctl.Hub.Status(room); ok {
		state.Status = &statusFrame{Type: "status", ID: id, Document: doc}
	}
	ctl.sendJSON(uid, state)

	if user, ok := ctl.Registry.User(uid); ok {
		ctl.Hub.Broadcast(room, memberFrame{Type: "member_joined", User: user})
	}
}

// handleLeave leaves the current room while keeping the connection.
func (ctl *Controller) handleLeave(ctx context.Context, uid domain.UserID) {
	log.Info().Str("module", "ws").Str("user", string(uid)).Msg("leave")
	room, ok := ctl.Hub.Leave(uid)
	ctl.sendJSON(uid, struct {
		Type string `json:"type"`
	}{Type: "left"})
	if ok {
		ctl.left(ctx, room, uid)
	}
}

// left announces that uid is no longer in room and lets the game react.
func (ctl *Controller) left(ctx context.Context, room domain.RoomID, uid domain.UserID) {
	if user, ok := ctl.Registry.User(uid); ok {
		ctl.Hub.Broadcast(room, memberFrame{Type: "member_left", User: user})
	}
	ctl.Handler.PresenceLeft(ctx, room, uid)
}

func (ctl *Controller) members(room domain.RoomID) []domain.User {
	ids := ctl.Hub.Members(room)
	out := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := ctl.Registry.User(id); ok {
			out = append(out, u)
		}
	}
	return out
}
