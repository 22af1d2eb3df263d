// Package stream plays sources by announcing them to the room's listeners.
// Clients fetch and decode the audio themselves; the engine keeps time.
package stream

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/guessthesong/internal/domain"
	"github.com/dkeye/guessthesong/internal/playback"
)

var ErrNoDuration = errors.New("source has no duration")

// Broadcaster delivers a JSON-encodable frame to everyone in room.
type Broadcaster interface {
	Broadcast(room domain.RoomID, v any)
}

type PlayFrame struct {
	Type     string  `json:"type"`
	URL      string  `json:"url"`
	Duration float64 `json:"duration"`
	Started  int64   `json:"started"`
}

type StopFrame struct {
	Type string `json:"type"`
}

type playing struct {
	done    chan error
	stopped chan struct{}
	timer   *time.Timer
	once    sync.Once
}

func (p *playing) finish(err error) bool {
	finished := false
	p.once.Do(func() {
		p.timer.Stop()
		p.done <- err
		close(p.stopped)
		finished = true
	})
	return finished
}

// Engine plays one source per room at a time.
type Engine struct {
	out Broadcaster
	now func() time.Time

	mu    sync.Mutex
	rooms map[domain.RoomID]*playing
}

func NewEngine(out Broadcaster) *Engine {
	return &Engine{out: out, now: time.Now, rooms: make(map[domain.RoomID]*playing)}
}

// Play announces src and finishes after its duration. A new Play in the
// same room replaces the previous one.
func (e *Engine) Play(ctx context.Context, room domain.RoomID, t domain.Track, src playback.Source) (<-chan error, error) {
	d := src.Duration()
	if d <= 0 {
		d = t.Duration
	}
	if d <= 0 {
		return nil, ErrNoDuration
	}

	p := &playing{done: make(chan error, 1), stopped: make(chan struct{})}
	e.mu.Lock()
	prev := e.rooms[room]
	e.rooms[room] = p
	p.timer = time.AfterFunc(d, func() { e.end(room, p, nil, false) })
	e.mu.Unlock()
	if prev != nil {
		prev.finish(nil)
	}

	e.out.Broadcast(room, PlayFrame{
		Type:     "play",
		URL:      src.URL(),
		Duration: d.Seconds(),
		Started:  e.now().UnixMilli(),
	})
	log.Debug().Str("module", "adapters.stream").Str("room", string(room)).Dur("duration", d).Msg("play")

	go func() {
		select {
		case <-ctx.Done():
			e.end(room, p, nil, true)
		case <-p.stopped:
		}
	}()
	return p.done, nil
}

// Stop ends the room's current source, if any.
func (e *Engine) Stop(room domain.RoomID) {
	e.mu.Lock()
	p := e.rooms[room]
	e.mu.Unlock()
	if p != nil {
		e.end(room, p, nil, true)
	}
}

func (e *Engine) end(room domain.RoomID, p *playing, err error, stopped bool) {
	e.mu.Lock()
	if e.rooms[room] == p {
		delete(e.rooms, room)
	}
	e.mu.Unlock()
	if p.finish(err) && stopped {
		e.out.Broadcast(room, StopFrame{Type: "stop"})
	}
}

// Playing reports whether room has a source playing.
func (e *Engine) Playing(room domain.RoomID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.rooms[room]
	return ok
}
