// Package playbacktest provides in-memory resolver and engine doubles.
package playbacktest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dkeye/guessthesong/internal/domain"
	"github.com/dkeye/guessthesong/internal/playback"
)

type Source struct {
	url      string
	duration time.Duration

	mu     sync.Mutex
	closed bool
}

func NewSource(url string, d time.Duration) *Source {
	return &Source{url: url, duration: d}
}

func (s *Source) URL() string             { return s.url }
func (s *Source) Duration() time.Duration { return s.duration }

func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Source) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Resolver resolves every track to a fake stream except those listed in Fail.
type Resolver struct {
	mu       sync.Mutex
	fail     map[string]bool
	sources  []*Source
	Duration time.Duration
}

func NewResolver(failing ...string) *Resolver {
	r := &Resolver{fail: make(map[string]bool), Duration: time.Hour}
	for _, id := range failing {
		r.fail[id] = true
	}
	return r
}

func (r *Resolver) Resolve(ctx context.Context, t domain.Track) (playback.Source, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail[t.ID] {
		return nil, fmt.Errorf("%w: %s", playback.ErrNoStream, t.ID)
	}
	d := t.Duration
	if d <= 0 {
		d = r.Duration
	}
	src := NewSource("fake://"+t.ID, d)
	r.sources = append(r.sources, src)
	return src, nil
}

func (r *Resolver) Sources() []*Source {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Source(nil), r.sources...)
}

type play struct {
	track domain.Track
	done  chan error
}

// Engine never ends a track by itself; tests call Finish or the driver calls Stop.
type Engine struct {
	mu      sync.Mutex
	current map[domain.RoomID]*play
	played  []domain.Track
	stops   int
	Refuse  map[string]bool
}

func NewEngine() *Engine {
	return &Engine{current: make(map[domain.RoomID]*play), Refuse: make(map[string]bool)}
}

func (e *Engine) Play(ctx context.Context, room domain.RoomID, t domain.Track, src playback.Source) (<-chan error, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Refuse[t.ID] {
		return nil, fmt.Errorf("engine refused %s", t.ID)
	}
	p := &play{track: t, done: make(chan error, 1)}
	e.current[room] = p
	e.played = append(e.played, t)
	return p.done, nil
}

func (e *Engine) Stop(room domain.RoomID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stops++
	e.finishLocked(room, nil)
}

// Finish ends the current track of room with err.
func (e *Engine) Finish(room domain.RoomID, err error) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.finishLocked(room, err)
}

func (e *Engine) finishLocked(room domain.RoomID, err error) bool {
	p, ok := e.current[room]
	if !ok {
		return false
	}
	delete(e.current, room)
	p.done <- err
	return true
}

// Playing returns the track currently playing in room.
func (e *Engine) Playing(room domain.RoomID) (domain.Track, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.current[room]
	if !ok {
		return domain.Track{}, false
	}
	return p.track, true
}

func (e *Engine) Played() []domain.Track {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]domain.Track(nil), e.played...)
}

func (e *Engine) Stops() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stops
}
