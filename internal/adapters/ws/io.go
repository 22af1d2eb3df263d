package ws

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/guessthesong/internal/domain"
)

func (ctl *Controller) writePump(ctx context.Context, c *Conn) {
	var ping <-chan time.Time
	if ctl.Options.PingPeriod > 0 {
		t := time.NewTicker(ctl.Options.PingPeriod)
		defer t.Stop()
		ping = t.C
	}

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "ws").Msg("writePump ctx done")
			c.Close()
			return
		case <-ping:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				log.Warn().Err(err).Str("module", "ws").Msg("writePump ping")
				c.Close()
				return
			}
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "ws").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump set deadline")
				c.Close()
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump write error")
				c.Close()
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, cancel context.CancelFunc, uid domain.UserID, c *Conn) {
	defer func() {
		log.Info().Str("module", "ws").Str("user", string(uid)).Msg("readPump closing")
		if room, ok := ctl.Hub.Detach(uid, c); ok {
			ctl.left(ctx, room, uid)
		}
		ctl.Limiter.Forget(uid)
		cancel()
		c.Close()
	}()

	if p := ctl.Options.PingPeriod; p > 0 {
		wait := p * 2
		_ = c.conn.SetReadDeadline(time.Now().Add(wait))
		c.conn.SetPongHandler(func(string) error {
			return c.conn.SetReadDeadline(time.Now().Add(wait))
		})
	}

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "ws").Str("user", string(uid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn().Err(err).Str("module", "ws").Str("user", string(uid)).Msg("readPump read error")
				}
				return
			}
			ctl.handleFrame(ctx, uid, data)
		}
	}
}

func (ctl *Controller) handleFrame(ctx context.Context, uid domain.UserID, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("bad json")
		ctl.sendJSON(uid, errFrame("bad_payload"))
		return
	}

	switch env.Type {
	case "join":
		ctl.handleJoin(ctx, uid, data)
	case "leave":
		ctl.handleLeave(ctx, uid)
	case "ping":
		ctl.handlePing(uid)
	case "rename":
		ctl.handleRename(uid, data)
	case "whoami":
		ctl.handleWhoAmI(uid)
	case "play":
		ctl.handlePlay(ctx, uid, data)
	case "react":
		ctl.handleReact(ctx, uid, data)
	case "control":
		ctl.handleControl(ctx, uid, data)
	case "chat":
		ctl.handleChat(ctx, uid, data)
	case "end":
		ctl.handleEnd(ctx, uid)
	default:
		log.Warn().Str("module", "ws").Str("type", env.Type).Msg("unknown frame")
		ctl.sendJSON(uid, errFrame("unknown_type"))
	}
}

func (ctl *Controller) sendJSON(uid domain.UserID, v any) {
	if err := ctl.Hub.send(uid, v); err != nil {
		log.Debug().Err(err).Str("module", "ws").Str("user", string(uid)).Msg("sendJSON")
	}
}

func decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
