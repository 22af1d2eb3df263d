package core

import (
	"context"

	"github.com/dkeye/guessthesong/internal/domain"
	"github.com/dkeye/guessthesong/internal/playback"
)

// BeginRound makes the dequeued song the current round. Session is the
// driver's observer.
func (s *Session) BeginRound(_ context.Context, e playback.Entry, skip context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != domain.StateStarted || e.Index < 1 || e.Index > len(s.rounds) {
		skip()
		return
	}
	s.votes = nil
	s.current = s.rounds[e.Index-1]
	s.skip = skip
	s.logger.Debug().Int("index", e.Index).Str("track", e.Track.ID).Msg("round begins")
}

func (s *Session) NowPlaying(ctx context.Context, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current.Index != index {
		return
	}
	s.docRound = index
	s.publishLocked(ctx, s.renderer.Build(s.snapshotLocked()))
}

func (s *Session) RevealArtwork(ctx context.Context, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current.Index != index || s.current.ArtworkShown {
		return
	}
	s.current.ArtworkShown = true
	s.patchLocked(ctx)
}

func (s *Session) EndRound(ctx context.Context, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 1 || index > len(s.rounds) {
		return
	}
	r := s.rounds[index-1]
	for _, id := range r.Messages {
		s.deleteLocked(ctx, id)
	}
	r.Messages = nil
	if s.current == r {
		s.current = nil
		s.skip = nil
	}
	s.votes = nil
}
