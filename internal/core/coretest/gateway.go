// Package coretest provides an in-memory room gateway.
package coretest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dkeye/guessthesong/internal/domain"
	"github.com/dkeye/guessthesong/internal/render"
)

var ErrNotInVoice = errors.New("user not in voice")

type Reply struct {
	Room domain.RoomID
	User domain.UserID
	Text string
}

// Gateway records everything a game sends to its room.
type Gateway struct {
	mu          sync.Mutex
	seq         int
	docs        map[domain.RoomID][]render.Document
	deleted     []domain.MessageID
	replies     []Reply
	voice       map[domain.RoomID]map[domain.UserID]bool
	connected   map[domain.RoomID]bool
	disconnects int
}

func NewGateway() *Gateway {
	return &Gateway{
		docs:      make(map[domain.RoomID][]render.Document),
		voice:     make(map[domain.RoomID]map[domain.UserID]bool),
		connected: make(map[domain.RoomID]bool),
	}
}

// EnterVoice puts user in room's voice channel.
func (g *Gateway) EnterVoice(room domain.RoomID, users ...domain.UserID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.voice[room] == nil {
		g.voice[room] = make(map[domain.UserID]bool)
	}
	for _, u := range users {
		g.voice[room][u] = true
	}
}

func (g *Gateway) ConnectVoice(_ context.Context, room domain.RoomID, user domain.UserID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.voice[room][user] {
		return ErrNotInVoice
	}
	g.connected[room] = true
	return nil
}

func (g *Gateway) DisconnectVoice(_ context.Context, room domain.RoomID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.connected[room] = false
	g.disconnects++
	return nil
}

func (g *Gateway) InVoice(room domain.RoomID, user domain.UserID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.voice[room][user]
}

func (g *Gateway) SendStatus(_ context.Context, room domain.RoomID, doc render.Document) (domain.MessageID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	g.docs[room] = append(g.docs[room], doc)
	return domain.MessageID(fmt.Sprintf("status-%d", g.seq)), nil
}

func (g *Gateway) EditStatus(_ context.Context, room domain.RoomID, _ domain.MessageID, doc render.Document) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.docs[room] = append(g.docs[room], doc)
	return nil
}

func (g *Gateway) DeleteMessage(_ context.Context, _ domain.RoomID, id domain.MessageID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deleted = append(g.deleted, id)
	return nil
}

func (g *Gateway) Reply(_ context.Context, room domain.RoomID, user domain.UserID, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.replies = append(g.replies, Reply{Room: room, User: user, Text: text})
	return nil
}

// Last returns the latest status document published in room.
func (g *Gateway) Last(room domain.RoomID) render.Document {
	g.mu.Lock()
	defer g.mu.Unlock()
	docs := g.docs[room]
	if len(docs) == 0 {
		return render.Document{}
	}
	return docs[len(docs)-1]
}

// Published counts status sends and edits in room.
func (g *Gateway) Published(room domain.RoomID) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.docs[room])
}

func (g *Gateway) Deleted() []domain.MessageID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]domain.MessageID(nil), g.deleted...)
}

func (g *Gateway) Replies() []Reply {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Reply(nil), g.replies...)
}

// LastReply returns the text of the latest reply, or "".
func (g *Gateway) LastReply() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.replies) == 0 {
		return ""
	}
	return g.replies[len(g.replies)-1].Text
}

func (g *Gateway) Connected(room domain.RoomID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connected[room]
}

func (g *Gateway) Disconnects() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.disconnects
}
