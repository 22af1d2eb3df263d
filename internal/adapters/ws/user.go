package ws

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/guessthesong/internal/domain"
)

func (ctl *Controller) handleRename(uid domain.UserID, data []byte) {
	var p struct {
		Type string `json:"type"`
		Name string `json:"name"`
	}
	if err := decode(data, &p); err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("bad rename payload")
		ctl.sendJSON(uid, errFrame("bad_payload"))
		return
	}
	if p.Name == "" {
		ctl.sendJSON(uid, errFrame("empty name"))
		return
	}

	log.Info().Str("module", "ws").Str("user", string(uid)).Str("name", p.Name).Msg("rename")
	if err := ctl.Registry.UpdateUsername(uid, p.Name); err != nil {
		ctl.sendJSON(uid, errFrame("invalid_name"))
		return
	}
	ctl.handleWhoAmI(uid)

	if room, ok := ctl.Hub.RoomOf(uid); ok {
		if user, ok := ctl.Registry.User(uid); ok {
			ctl.Hub.Broadcast(room, memberFrame{Type: "member_updated", User: user})
		}
	}
}

func (ctl *Controller) handleWhoAmI(uid domain.UserID) {
	user, ok := ctl.Registry.User(uid)
	if !ok {
		ctl.sendJSON(uid, errFrame("unknown_user"))
		return
	}
	resp := struct {
		Type     string        `json:"type"`
		ID       domain.UserID `json:"id"`
		Username string        `json:"username"`
		Room     domain.RoomID `json:"room,omitempty"`
	}{
		Type:     "whoami",
		ID:       user.ID,
		Username: user.Username,
	}
	if room, ok := ctl.Hub.RoomOf(uid); ok {
		resp.Room = room
	}
	ctl.sendJSON(uid, resp)
}
