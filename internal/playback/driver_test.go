package playback_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/guessthesong/internal/domain"
	"github.com/dkeye/guessthesong/internal/playback"
	"github.com/dkeye/guessthesong/internal/playback/playbacktest"
)

const room = domain.RoomID("room")

type recorder struct {
	mu      sync.Mutex
	begun   []int
	playing []int
	ended   []int
	artwork []int
	skips   map[int]context.CancelFunc
}

func newRecorder() *recorder { return &recorder{skips: make(map[int]context.CancelFunc)} }

func (r *recorder) BeginRound(_ context.Context, e playback.Entry, skip context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.begun = append(r.begun, e.Index)
	r.skips[e.Index] = skip
}

func (r *recorder) NowPlaying(_ context.Context, index int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.playing = append(r.playing, index)
}

func (r *recorder) RevealArtwork(_ context.Context, index int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.artwork = append(r.artwork, index)
}

func (r *recorder) EndRound(_ context.Context, index int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ended = append(r.ended, index)
}

func (r *recorder) snapshot() (begun, playing, ended, artwork []int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.begun...), append([]int(nil), r.playing...),
		append([]int(nil), r.ended...), append([]int(nil), r.artwork...)
}

func (r *recorder) skip(index int) {
	r.mu.Lock()
	fn := r.skips[index]
	r.mu.Unlock()
	fn()
}

func run(ctx context.Context, t *testing.T, d *playback.Driver) <-chan error {
	t.Helper()
	out := make(chan error, 1)
	go func() { out <- d.Run(ctx) }()
	return out
}

func TestDriverSentinelOnly(t *testing.T) {
	q := playback.NewQueue()
	q.Push(playback.EndOfQueue())
	rec := newRecorder()
	d := playback.NewDriver(room, q, playbacktest.NewResolver(), playbacktest.NewEngine(), rec)

	require.NoError(t, d.Run(context.Background()))
	begun, _, _, _ := rec.snapshot()
	assert.Empty(t, begun)
}

func TestDriverPlaysInOrderAndSkipsBrokenTracks(t *testing.T) {
	q := playback.NewQueue()
	q.Push(playback.TrackEntry(1, domain.Track{ID: "a"}))
	q.Push(playback.TrackEntry(2, domain.Track{ID: "broken"}))
	q.Push(playback.TrackEntry(3, domain.Track{ID: "c"}))
	q.Push(playback.EndOfQueue())

	res := playbacktest.NewResolver("broken")
	eng := playbacktest.NewEngine()
	rec := newRecorder()
	d := playback.NewDriver(room, q, res, eng, rec)
	done := run(context.Background(), t, d)

	require.Eventually(t, func() bool {
		tr, ok := eng.Playing(room)
		return ok && tr.ID == "a"
	}, time.Second, 5*time.Millisecond)
	require.True(t, eng.Finish(room, nil))

	require.Eventually(t, func() bool {
		tr, ok := eng.Playing(room)
		return ok && tr.ID == "c"
	}, time.Second, 5*time.Millisecond)
	require.True(t, eng.Finish(room, assert.AnError))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("driver did not stop at end of queue")
	}

	begun, playing, ended, _ := rec.snapshot()
	assert.Equal(t, []int{1, 2, 3}, begun)
	assert.Equal(t, []int{1, 3}, playing)
	assert.Equal(t, []int{1, 2, 3}, ended)
	for _, src := range res.Sources() {
		assert.True(t, src.Closed())
	}
}

func TestDriverSkipStopsEngine(t *testing.T) {
	q := playback.NewQueue()
	q.Push(playback.TrackEntry(1, domain.Track{ID: "a"}))
	q.Push(playback.EndOfQueue())
	eng := playbacktest.NewEngine()
	rec := newRecorder()
	d := playback.NewDriver(room, q, playbacktest.NewResolver(), eng, rec)
	done := run(context.Background(), t, d)

	require.Eventually(t, func() bool {
		_, playing, _, _ := rec.snapshot()
		return len(playing) == 1
	}, time.Second, 5*time.Millisecond)
	rec.skip(1)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("skip did not advance the driver")
	}
	assert.Equal(t, 1, eng.Stops())
}

// deafEngine never confirms a stop.
type deafEngine struct{ stops chan struct{} }

func (e *deafEngine) Play(context.Context, domain.RoomID, domain.Track, playback.Source) (<-chan error, error) {
	return make(chan error), nil
}

func (e *deafEngine) Stop(domain.RoomID) { e.stops <- struct{}{} }

func TestDriverMovesOnAfterStopGrace(t *testing.T) {
	q := playback.NewQueue()
	q.Push(playback.TrackEntry(1, domain.Track{ID: "a"}))
	q.Push(playback.TrackEntry(2, domain.Track{ID: "b"}))
	q.Push(playback.EndOfQueue())
	eng := &deafEngine{stops: make(chan struct{}, 2)}
	rec := newRecorder()
	d := playback.NewDriver(room, q, playbacktest.NewResolver(), eng, rec)
	d.StopGrace = 20 * time.Millisecond
	done := run(context.Background(), t, d)

	for i := 1; i <= 2; i++ {
		require.Eventually(t, func() bool {
			_, playing, _, _ := rec.snapshot()
			return len(playing) == i
		}, time.Second, 5*time.Millisecond)
		rec.skip(i)
		<-eng.stops
	}

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("driver waited past the stop grace")
	}
	_, _, ended, _ := rec.snapshot()
	assert.Equal(t, []int{1, 2}, ended)
}

func TestDriverCancelUnblocksQueue(t *testing.T) {
	q := playback.NewQueue()
	ctx, cancel := context.WithCancel(context.Background())
	d := playback.NewDriver(room, q, playbacktest.NewResolver(), playbacktest.NewEngine(), newRecorder())
	done := run(ctx, t, d)
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancel did not unblock the driver")
	}
}

func TestDriverRevealsArtworkAtHalfDuration(t *testing.T) {
	q := playback.NewQueue()
	q.Push(playback.TrackEntry(1, domain.Track{ID: "short", Duration: 40 * time.Millisecond}))
	eng := playbacktest.NewEngine()
	rec := newRecorder()
	d := playback.NewDriver(room, q, playbacktest.NewResolver(), eng, rec)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	run(ctx, t, d)

	require.Eventually(t, func() bool {
		_, _, _, artwork := rec.snapshot()
		return len(artwork) == 1 && artwork[0] == 1
	}, time.Second, 5*time.Millisecond)
}
