package playback

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/guessthesong/internal/domain"
)

// DefaultStopGrace bounds how long the driver waits for the engine to
// confirm a forced stop.
const DefaultStopGrace = 5 * time.Second

// Driver is the single consumer of a room's queue.
type Driver struct {
	Room      domain.RoomID
	Queue     *Queue
	Resolver  Resolver
	Engine    Engine
	Observer  Observer
	StopGrace time.Duration

	logger zerolog.Logger
}

func NewDriver(room domain.RoomID, q *Queue, r Resolver, e Engine, o Observer) *Driver {
	return &Driver{
		Room:      room,
		Queue:     q,
		Resolver:  r,
		Engine:    e,
		Observer:  o,
		StopGrace: DefaultStopGrace,
		logger:    log.With().Str("module", "playback").Str("room", string(room)).Logger(),
	}
}

// Run loops until the end-of-queue entry (returns nil) or ctx is done
// (returns ctx.Err()). A track that cannot be played never stops the loop.
func (d *Driver) Run(ctx context.Context) error {
	obsCtx := context.WithoutCancel(ctx)
	for {
		e, err := d.Queue.Next(ctx)
		if err != nil {
			d.logger.Info().Err(err).Msg("driver stopped")
			return err
		}
		if e.IsEnd() {
			d.logger.Info().Msg("end of queue")
			return nil
		}

		roundCtx, skip := context.WithCancel(ctx)
		d.Observer.BeginRound(obsCtx, e, skip)
		d.play(roundCtx, obsCtx, e)
		skip()
		d.Observer.EndRound(obsCtx, e.Index)

		if ctx.Err() != nil {
			d.logger.Info().Err(ctx.Err()).Msg("driver stopped")
			return ctx.Err()
		}
	}
}

func (d *Driver) play(ctx, obsCtx context.Context, e Entry) {
	logger := d.logger.With().Int("index", e.Index).Str("track", e.Track.ID).Logger()

	src, err := d.Resolver.Resolve(ctx, e.Track)
	if err != nil {
		logger.Warn().Err(err).Msg("resolve failed, skipping track")
		return
	}
	defer func() {
		if err := src.Close(); err != nil {
			logger.Debug().Err(err).Msg("source close")
		}
	}()
	if ctx.Err() != nil {
		return
	}

	done, err := d.Engine.Play(ctx, d.Room, e.Track, src)
	if err != nil {
		logger.Warn().Err(err).Msg("engine refused source, skipping track")
		return
	}

	duration := src.Duration()
	if duration <= 0 {
		duration = e.Track.Duration
	}
	reveal := time.AfterFunc(duration/2, func() {
		d.Observer.RevealArtwork(obsCtx, e.Index)
	})
	defer reveal.Stop()

	d.Observer.NowPlaying(obsCtx, e.Index)
	logger.Info().Dur("duration", duration).Msg("now playing")

	select {
	case err := <-done:
		if err != nil {
			logger.Warn().Err(err).Msg("playback error")
		}
	case <-ctx.Done():
		d.Engine.Stop(d.Room)
		grace := time.NewTimer(d.StopGrace)
		defer grace.Stop()
		select {
		case <-done:
		case <-grace.C:
			logger.Warn().Msg("engine did not confirm stop")
		}
	}
}
