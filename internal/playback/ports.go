// Package playback moves a room from one queued song to the next: it pulls
// entries from the queue, resolves and plays audio, and reports round
// boundaries to whoever owns the game state.
package playback

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/guessthesong/internal/domain"
)

var ErrNoStream = errors.New("no stream found for track")

// Source is a streamable rendition of a track.
type Source interface {
	URL() string
	Duration() time.Duration
	Close() error
}

// Resolver finds a stream for a track, fingerprint first.
type Resolver interface {
	Resolve(ctx context.Context, t domain.Track) (Source, error)
}

// Engine plays sources into a room. The returned channel receives exactly
// one value when playback ends, nil on a clean finish or Stop.
type Engine interface {
	Play(ctx context.Context, room domain.RoomID, t domain.Track, src Source) (<-chan error, error)
	Stop(room domain.RoomID)
}

// Observer receives round boundaries from the driver. Calls are made from
// the driver goroutine, except RevealArtwork which fires from a timer.
type Observer interface {
	// BeginRound is called once per dequeued track before resolution.
	// skip ends the round early.
	BeginRound(ctx context.Context, e Entry, skip context.CancelFunc)
	// NowPlaying is called once the engine accepted the source.
	NowPlaying(ctx context.Context, index int)
	// RevealArtwork fires at half the track duration.
	RevealArtwork(ctx context.Context, index int)
	// EndRound is called after playback of index finished for any reason.
	EndRound(ctx context.Context, index int)
}
