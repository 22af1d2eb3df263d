package ws

import "github.com/dkeye/guessthesong/internal/domain"

func (ctl *Controller) handlePing(user domain.UserID) {
	ctl.sendJSON(user, struct {
		Type string `json:"type"`
	}{Type: "pong"})
}
