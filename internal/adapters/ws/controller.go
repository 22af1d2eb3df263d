// Package ws is the room gateway over WebSocket: browsers join a room,
// chat, react and press controls, and receive the status document and
// playback announcements.
package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/guessthesong/internal/app"
	"github.com/dkeye/guessthesong/internal/core"
	"github.com/dkeye/guessthesong/internal/domain"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrClosed       = errors.New("connection closed")
)

const (
	sendBuffer   = 64
	writeTimeout = 5 * time.Second
)

// Handler receives the game events produced by clients.
type Handler interface {
	Play(ctx context.Context, room domain.RoomID, author domain.User, songs int)
	React(ctx context.Context, room domain.RoomID, user domain.User, added bool)
	PresenceLeft(ctx context.Context, room domain.RoomID, user domain.UserID)
	SelectPlaylists(ctx context.Context, room domain.RoomID, user domain.UserID, names []string)
	AddPlaylist(ctx context.Context, room domain.RoomID, user domain.UserID, ref string)
	Message(ctx context.Context, room domain.RoomID, msg core.Message) core.Outcome
	Skip(ctx context.Context, room domain.RoomID, user domain.UserID)
	End(ctx context.Context, room domain.RoomID, user domain.UserID)
}

type Options struct {
	ReadLimit  int64
	PingPeriod time.Duration
}

type Controller struct {
	Handler  Handler
	Registry *app.Registry
	Hub      *Hub
	Limiter  *RoomRateLimiter
	Options  Options
}

func NewController(h Handler, reg *app.Registry, hub *Hub, limiter *RoomRateLimiter, opts Options) *Controller {
	return &Controller{Handler: h, Registry: reg, Hub: hub, Limiter: limiter, Options: opts}
}

// Conn is one client's socket with a bounded send queue.
type Conn struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func NewConn(ws *websocket.Conn) *Conn {
	return &Conn{conn: ws, send: make(chan []byte, sendBuffer)}
}

func (c *Conn) TrySend(f []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *Conn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWS upgrades the request and serves the client identified by the
// client token cookie until it disconnects or ctx ends.
func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context) {
	uid := domain.UserID(c.GetString("client_token"))
	log.Info().Str("module", "ws").Str("user", string(uid)).Msg("new WS connection")

	if _, _, err := ctl.Registry.GetOrCreateUser(uid); err != nil {
		log.Warn().Err(err).Str("module", "ws").Msg("bad client token")
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "bad client token"})
		return
	}
	if name := RememberedName(c); name != "" {
		if err := ctl.Registry.UpdateUsername(uid, name); err != nil {
			log.Warn().Err(err).Str("module", "ws").Str("user", string(uid)).Msg("remembered name rejected")
		}
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("ws upgrade")
		return
	}
	if ctl.Options.ReadLimit > 0 {
		ws.SetReadLimit(ctl.Options.ReadLimit)
	}

	conn := NewConn(ws)
	ctl.Hub.Attach(uid, conn)

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, uid, conn)
}
