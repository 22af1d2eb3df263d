package ws

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/guessthesong/internal/core"
	"github.com/dkeye/guessthesong/internal/domain"
	"github.com/dkeye/guessthesong/internal/render"
)

var (
	ErrNotInVoice     = errors.New("user is not in the room")
	ErrUnknownMessage = errors.New("unknown status message")
	ErrNotConnected   = errors.New("user not connected")
)

var _ core.RoomGateway = (*Hub)(nil)

type roomState struct {
	members  map[domain.UserID]*Conn
	voice    bool
	statusID domain.MessageID
	status   render.Document
}

func (r *roomState) empty() bool { return len(r.members) == 0 && !r.voice }

// Hub tracks which connection sits in which room and implements the room
// gateway on top of them.
type Hub struct {
	policy Policy

	mu    sync.RWMutex
	rooms map[domain.RoomID]*roomState
	conns map[domain.UserID]*Conn
	where map[domain.UserID]domain.RoomID
}

func NewHub(policy Policy) *Hub {
	if policy == nil {
		policy = SimplePolicy{}
	}
	return &Hub{
		policy: policy,
		rooms:  make(map[domain.RoomID]*roomState),
		conns:  make(map[domain.UserID]*Conn),
		where:  make(map[domain.UserID]domain.RoomID),
	}
}

// Attach registers the user's connection, closing any previous one.
func (h *Hub) Attach(user domain.UserID, c *Conn) {
	h.mu.Lock()
	prev := h.conns[user]
	h.conns[user] = c
	if room, ok := h.where[user]; ok {
		h.rooms[room].members[user] = c
	}
	h.mu.Unlock()
	if prev != nil && prev != c {
		prev.Close()
	}
}

// Detach forgets c and the room it was in. It is a no-op when the user
// already attached a newer connection.
func (h *Hub) Detach(user domain.UserID, c *Conn) (domain.RoomID, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[user] != c {
		return "", false
	}
	delete(h.conns, user)
	return h.leaveLocked(user)
}

// Join moves user into room and returns the room it left, if any.
func (h *Hub) Join(room domain.RoomID, user domain.UserID) (domain.RoomID, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cur, ok := h.where[user]; ok && cur == room {
		return "", false
	}
	prev, left := h.leaveLocked(user)
	rs := h.roomLocked(room)
	rs.members[user] = h.conns[user]
	h.where[user] = room
	return prev, left
}

func (h *Hub) Leave(user domain.UserID) (domain.RoomID, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.leaveLocked(user)
}

func (h *Hub) leaveLocked(user domain.UserID) (domain.RoomID, bool) {
	room, ok := h.where[user]
	if !ok {
		return "", false
	}
	delete(h.where, user)
	if rs, ok := h.rooms[room]; ok {
		delete(rs.members, user)
		if rs.empty() {
			delete(h.rooms, room)
		}
	}
	return room, true
}

func (h *Hub) roomLocked(room domain.RoomID) *roomState {
	rs, ok := h.rooms[room]
	if !ok {
		rs = &roomState{members: make(map[domain.UserID]*Conn)}
		h.rooms[room] = rs
	}
	return rs
}

func (h *Hub) RoomOf(user domain.UserID) (domain.RoomID, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.where[user]
	return room, ok
}

// Members lists the users present in room, sorted.
func (h *Hub) Members(room domain.RoomID) []domain.UserID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	rs, ok := h.rooms[room]
	if !ok {
		return nil
	}
	out := make([]domain.UserID, 0, len(rs.members))
	for id := range rs.members {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Status returns the latest status document of room.
func (h *Hub) Status(room domain.RoomID) (domain.MessageID, render.Document, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	rs, ok := h.rooms[room]
	if !ok || rs.statusID == "" {
		return "", render.Document{}, false
	}
	return rs.statusID, rs.status, true
}

// Broadcast sends v to every member of room. Slow members are handled by
// the hub's policy.
func (h *Hub) Broadcast(room domain.RoomID, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("broadcast marshal")
		return
	}

	h.mu.RLock()
	rs, ok := h.rooms[room]
	type target struct {
		id   domain.UserID
		conn *Conn
	}
	var targets []target
	if ok {
		for id, c := range rs.members {
			if c != nil {
				targets = append(targets, target{id, c})
			}
		}
	}
	h.mu.RUnlock()

	for _, t := range targets {
		if err := t.conn.TrySend(data); err != nil {
			h.onBackpressure(room, t.id, t.conn, err)
		}
	}
}

func (h *Hub) onBackpressure(room domain.RoomID, user domain.UserID, c *Conn, err error) {
	logger := log.Warn().Str("module", "ws").Str("room", string(room)).Str("user", string(user)).Err(err)
	switch h.policy.OnBackPressure(room, user) {
	case KickMember:
		logger.Msg("slow member kicked")
		c.Close()
	case DropFrame, NoAction:
		logger.Msg("frame dropped")
	}
}

func (h *Hub) send(user domain.UserID, v any) error {
	h.mu.RLock()
	c, ok := h.conns[user]
	h.mu.RUnlock()
	if !ok {
		return ErrNotConnected
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.TrySend(data)
}

// Post publishes a chat message in room and returns it for routing.
func (h *Hub) Post(room domain.RoomID, author domain.User, text string) core.Message {
	msg := core.Message{ID: domain.MessageID(uuid.NewString()), Author: author.ID, Content: text}
	h.Broadcast(room, chatFrame{Type: "chat", ID: msg.ID, Author: author, Text: text})
	return msg
}

func (h *Hub) ConnectVoice(_ context.Context, room domain.RoomID, user domain.UserID) error {
	h.mu.Lock()
	if !h.hasMemberLocked(room, user) {
		h.mu.Unlock()
		return ErrNotInVoice
	}
	h.roomLocked(room).voice = true
	h.mu.Unlock()

	h.Broadcast(room, voiceFrame{Type: "voice", Connected: true})
	log.Info().Str("module", "ws").Str("room", string(room)).Msg("voice connected")
	return nil
}

func (h *Hub) hasMemberLocked(room domain.RoomID, user domain.UserID) bool {
	r, ok := h.where[user]
	return ok && r == room
}

func (h *Hub) DisconnectVoice(_ context.Context, room domain.RoomID) error {
	h.mu.Lock()
	rs, ok := h.rooms[room]
	if ok {
		rs.voice = false
		if rs.empty() {
			delete(h.rooms, room)
		}
	}
	h.mu.Unlock()
	if !ok {
		return nil
	}
	h.Broadcast(room, voiceFrame{Type: "voice", Connected: false})
	log.Info().Str("module", "ws").Str("room", string(room)).Msg("voice disconnected")
	return nil
}

func (h *Hub) InVoice(room domain.RoomID, user domain.UserID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.hasMemberLocked(room, user)
}

func (h *Hub) SendStatus(_ context.Context, room domain.RoomID, doc render.Document) (domain.MessageID, error) {
	id := domain.MessageID(uuid.NewString())
	h.mu.Lock()
	rs := h.roomLocked(room)
	rs.statusID, rs.status = id, doc
	h.mu.Unlock()

	h.Broadcast(room, statusFrame{Type: "status", ID: id, Document: doc})
	return id, nil
}

func (h *Hub) EditStatus(_ context.Context, room domain.RoomID, id domain.MessageID, doc render.Document) error {
	h.mu.Lock()
	rs := h.roomLocked(room)
	if rs.statusID != "" && rs.statusID != id {
		h.mu.Unlock()
		return ErrUnknownMessage
	}
	rs.statusID, rs.status = id, doc
	h.mu.Unlock()

	h.Broadcast(room, statusFrame{Type: "status_updated", ID: id, Document: doc})
	return nil
}

func (h *Hub) DeleteMessage(_ context.Context, room domain.RoomID, id domain.MessageID) error {
	h.Broadcast(room, deletedFrame{Type: "message_deleted", ID: id})
	return nil
}

func (h *Hub) Reply(_ context.Context, room domain.RoomID, user domain.UserID, text string) error {
	return h.send(user, replyFrame{Type: "reply", Room: room, Text: text})
}
