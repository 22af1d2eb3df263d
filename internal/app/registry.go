package app

import (
	"errors"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/guessthesong/internal/core"
	"github.com/dkeye/guessthesong/internal/domain"
)

const defaultUsername = "guest"

var (
	ErrGameRunning = errors.New("a game is already running in this room")
	ErrUnknownUser = errors.New("unknown user")
)

// Registry maps rooms to their game and client tokens to users.
type Registry struct {
	mu    sync.RWMutex
	games map[domain.RoomID]*core.Session
	users map[domain.UserID]*domain.User
}

func NewRegistry() *Registry {
	return &Registry{
		games: make(map[domain.RoomID]*core.Session),
		users: make(map[domain.UserID]*domain.User),
	}
}

// Create builds a session for room with newSession unless one exists.
// The room stays locked while newSession runs.
func (r *Registry) Create(room domain.RoomID, newSession func() *core.Session) (*core.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.games[room]; ok {
		return nil, ErrGameRunning
	}
	s := newSession()
	r.games[room] = s
	log.Info().Str("module", "app.registry").Str("room", string(room)).Msg("game created")
	return s, nil
}

func (r *Registry) Get(room domain.RoomID) (*core.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.games[room]
	return s, ok
}

// Delete removes the game of room. Deleting an absent room is a no-op.
func (r *Registry) Delete(room domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.games[room]; !ok {
		return
	}
	delete(r.games, room)
	log.Info().Str("module", "app.registry").Str("room", string(room)).Msg("game removed")
}

// List returns the running games ordered by room.
func (r *Registry) List() []*core.Session {
	r.mu.RLock()
	out := make([]*core.Session, 0, len(r.games))
	for _, s := range r.games {
		out = append(out, s)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Room() < out[j].Room() })
	return out
}

// GetOrCreateUser returns the user behind a client token, creating a guest
// on first sight. Tokens are validated by domain.NewUser.
func (r *Registry) GetOrCreateUser(id domain.UserID) (*domain.User, bool, error) {
	r.mu.RLock()
	u, ok := r.users[id]
	r.mu.RUnlock()
	if ok {
		return u, false, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok = r.users[id]; ok {
		return u, false, nil
	}
	u, err := domain.NewUser(id, defaultUsername)
	if err != nil {
		return nil, false, err
	}
	r.users[id] = u
	log.Info().Str("module", "app.registry").Str("user", string(id)).Msg("created new user")
	return u, true, nil
}

func (r *Registry) User(id domain.UserID) (domain.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return domain.User{}, false
	}
	return *u, true
}

func (r *Registry) UpdateUsername(id domain.UserID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return ErrUnknownUser
	}
	if err := u.SetUsername(name); err != nil {
		return err
	}
	log.Info().Str("module", "app.registry").Str("user", string(id)).Str("username", name).Msg("updated username")
	return nil
}
