package playback

import (
	"context"
	"sync"

	"github.com/dkeye/guessthesong/internal/domain"
)

// Entry is either a queued track or the end-of-queue marker.
type Entry struct {
	Index int
	Track domain.Track
	end   bool
}

// TrackEntry builds an entry for the track at 1-based position index.
func TrackEntry(index int, t domain.Track) Entry {
	return Entry{Index: index, Track: t}
}

// EndOfQueue builds the marker telling the driver no more songs follow.
func EndOfQueue() Entry {
	return Entry{end: true}
}

func (e Entry) IsEnd() bool { return e.end }

// Queue is an unbounded FIFO with a single consumer.
type Queue struct {
	mu      sync.Mutex
	entries []Entry
	ready   chan struct{}
}

func NewQueue() *Queue {
	return &Queue{ready: make(chan struct{}, 1)}
}

// Push never blocks.
func (q *Queue) Push(e Entry) {
	q.mu.Lock()
	q.entries = append(q.entries, e)
	q.mu.Unlock()
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Next blocks until an entry is available or ctx is done.
func (q *Queue) Next(ctx context.Context) (Entry, error) {
	for {
		q.mu.Lock()
		if len(q.entries) > 0 {
			e := q.entries[0]
			q.entries[0] = Entry{}
			q.entries = q.entries[1:]
			more := len(q.entries) > 0
			q.mu.Unlock()
			if more {
				select {
				case q.ready <- struct{}{}:
				default:
				}
			}
			return e, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return Entry{}, ctx.Err()
		case <-q.ready:
		}
	}
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
