// Package core holds the per-room game: players, the song sequence, the
// round being played and the status document mirroring them.
package core

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/guessthesong/internal/domain"
	"github.com/dkeye/guessthesong/internal/playback"
	"github.com/dkeye/guessthesong/internal/render"
	"github.com/dkeye/guessthesong/internal/scoring"
)

var (
	ErrAlreadyStarted    = errors.New("game already started")
	ErrSongsAlreadyAdded = errors.New("songs already added")
	ErrNoSongs           = errors.New("no songs added")
)

// Settings are fixed for the lifetime of a session.
type Settings struct {
	Room        domain.RoomID
	Creator     *domain.Player
	Songs       int
	Points      scoring.Points
	Suppression Suppression
}

// Deps are the collaborators a session talks to.
type Deps struct {
	Gateway  RoomGateway
	Resolver playback.Resolver
	Engine   playback.Engine
	// OnClosed runs once, after the voice connection was torn down.
	OnClosed func(domain.RoomID)
}

// Outcome tells the caller what a message did to the game.
type Outcome int

const (
	Ignored Outcome = iota
	TitleGuessed
	ArtistGuessed
	Missed
)

// Session is the game of one room. A single mutex serializes every
// mutation, so scoring, voting and round transitions never interleave.
type Session struct {
	settings Settings
	deps     Deps
	renderer render.Renderer
	logger   zerolog.Logger

	mu       sync.Mutex
	state    domain.State
	started  bool
	roster   *Roster
	rounds   []*domain.Round
	sources  []string
	queue    *playback.Queue
	loaded   bool
	current  *domain.Round
	skip     context.CancelFunc
	votes    []domain.UserID
	options  []render.PlaylistOption
	statusID domain.MessageID
	doc      render.Document
	docRound int
	cancel   context.CancelFunc

	closeOnce sync.Once
	done      chan struct{}
}

func NewSession(settings Settings, deps Deps) *Session {
	if settings.Points == (scoring.Points{}) {
		settings.Points = scoring.DefaultPoints
	}
	if settings.Suppression == "" {
		settings.Suppression = SuppressPlayers
	}
	s := &Session{
		settings: settings,
		deps:     deps,
		logger:   log.With().Str("module", "core.session").Str("room", string(settings.Room)).Logger(),
		state:    domain.StateNotStarted,
		roster:   NewRoster(),
		queue:    playback.NewQueue(),
		done:     make(chan struct{}),
	}
	s.roster.Add(settings.Creator)
	return s
}

func (s *Session) Room() domain.RoomID { return s.settings.Room }

func (s *Session) Creator() *domain.Player { return s.settings.Creator }

// Songs is the number of songs the creator asked for.
func (s *Session) Songs() int { return s.settings.Songs }

// Done is closed once the session has been torn down.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) State() domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// AddPlayer activates p and returns the active players.
func (s *Session) AddPlayer(p *domain.Player) []*domain.Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roster.Add(p)
	s.logger.Info().Str("user", string(p.ID)).Msg("player added")
	return s.roster.List()
}

// RemovePlayer deactivates id unless it is the creator. A removed
// player's skip vote is withdrawn.
func (s *Session) RemovePlayer(id domain.UserID) []*domain.Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == s.settings.Creator.ID {
		return s.roster.List()
	}
	if s.roster.Remove(id) {
		s.withdrawVoteLocked(id)
		s.logger.Info().Str("user", string(id)).Msg("player removed")
	}
	return s.roster.List()
}

func (s *Session) IsPlayer(id domain.UserID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roster.Has(id)
}

// Standings returns active players ranked by points, ties in join order.
func (s *Session) Standings() []*domain.Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roster.Standings()
}

// AddSongs stores the song sequence and queues it, followed by the
// end-of-queue marker. It may be called once.
func (s *Session) AddSongs(tracks []domain.Track, sources []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return ErrSongsAlreadyAdded
	}
	s.loaded = true
	s.sources = append([]string(nil), sources...)
	s.rounds = make([]*domain.Round, 0, len(tracks))
	for i, t := range tracks {
		r := domain.NewRound(i+1, t)
		s.rounds = append(s.rounds, r)
		s.queue.Push(playback.TrackEntry(r.Index, t))
	}
	s.queue.Push(playback.EndOfQueue())
	s.logger.Info().Int("songs", len(tracks)).Strs("sources", sources).Msg("songs added")
	return nil
}

// Start runs the game and returns only once it is over and torn down.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != domain.StateNotStarted {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	if !s.loaded {
		s.mu.Unlock()
		return ErrNoSongs
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.state = domain.StateStarted
	s.started = true
	s.publishLocked(ctx, s.renderer.Starting())
	s.mu.Unlock()
	defer cancel()

	s.logger.Info().Msg("game started")
	driver := playback.NewDriver(s.settings.Room, s.queue, s.deps.Resolver, s.deps.Engine, s)
	err := driver.Run(runCtx)
	s.teardown(context.WithoutCancel(ctx))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// End stops the game. Safe to call any number of times.
func (s *Session) End(ctx context.Context) {
	s.mu.Lock()
	switch s.state {
	case domain.StateNotStarted:
		// A concurrent Start now fails with ErrAlreadyStarted.
		s.state = domain.StateEnded
		s.mu.Unlock()
		s.teardown(ctx)
	case domain.StateStarted:
		cancel := s.cancel
		s.mu.Unlock()
		cancel()
	default:
		s.mu.Unlock()
	}
}

// OnMessage scores a chat message against the round playing when it
// arrived: title first, then artists.
func (s *Session) OnMessage(ctx context.Context, msg Message) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != domain.StateStarted {
		return Ignored
	}

	p, ok := s.roster.Get(msg.Author)
	if !ok {
		if s.settings.Suppression.ShouldDelete(false) {
			s.deleteLocked(ctx, msg.ID)
		}
		return Ignored
	}

	round := s.current
	if pts, ok := scoring.CheckTitle(p, round, msg.Content, s.settings.Points); ok {
		round.Messages = append(round.Messages, msg.ID)
		s.logger.Info().Str("user", string(p.ID)).Int("index", round.Index).Int("points", pts).Msg("title guessed")
		s.patchLocked(ctx, render.FieldTitle)
		if s.skip != nil {
			s.skip()
		}
		return TitleGuessed
	}

	if round != nil {
		hit, ok := scoring.CheckArtist(p, round, msg.Content, scoring.ArtistsView(round), s.settings.Points)
		if ok {
			round.Messages = append(round.Messages, msg.ID)
			s.logger.Info().Str("user", string(p.ID)).Int("index", round.Index).
				Str("artist", hit.Artist).Int("points", hit.Points).Bool("complete", hit.Complete).Msg("artist guessed")
			s.patchLocked(ctx, render.FieldArtists)
			return ArtistGuessed
		}
	}

	if s.settings.Suppression.ShouldDelete(true) {
		s.deleteLocked(ctx, msg.ID)
	}
	return Missed
}

// SkipVote toggles id's vote to skip the current song. When every
// active player voted, the song is skipped and the votes cleared.
func (s *Session) SkipVote(ctx context.Context, id domain.UserID) ([]*domain.Player, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != domain.StateStarted || !s.roster.Has(id) {
		return s.votersLocked(), false
	}

	if !s.withdrawVoteLocked(id) {
		s.votes = append(s.votes, id)
	}

	forced := len(s.votes) == s.roster.Len()
	if forced {
		s.votes = nil
		if s.skip != nil {
			s.skip()
		}
		s.logger.Info().Msg("song skipped by vote")
	}
	voters := s.votersLocked()
	if s.current != nil {
		s.patchLocked(ctx)
	}
	return voters, forced
}

// OpenLobby publishes the settings document players join from.
func (s *Session) OpenLobby(ctx context.Context, options []render.PlaylistOption) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.options = append([]render.PlaylistOption(nil), options...)
	s.publishLocked(ctx, s.renderer.Lobby(s.roster.List(), s.settings.Songs, s.options))
}

// AddOption makes one more playlist selectable in the lobby.
func (s *Session) AddOption(ctx context.Context, o render.PlaylistOption) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.options = append(s.options, o)
	if s.state == domain.StateNotStarted {
		s.publishLocked(ctx, s.renderer.Lobby(s.roster.List(), s.settings.Songs, s.options))
	}
}

// Refresh re-renders the document for the current state.
func (s *Session) Refresh(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case domain.StateNotStarted:
		s.publishLocked(ctx, s.renderer.Lobby(s.roster.List(), s.settings.Songs, s.options))
	case domain.StateStarted:
		if s.current != nil {
			s.patchLocked(ctx)
		}
	}
}

// Status rebuilds the status document from state alone.
func (s *Session) Status() render.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.state == domain.StateEnded:
		return s.renderer.Final(s.roster.Standings())
	case s.state == domain.StateStarted && s.current != nil:
		return s.renderer.Build(s.snapshotLocked())
	case s.state == domain.StateStarted:
		return s.renderer.Starting()
	default:
		return s.renderer.Lobby(s.roster.List(), s.settings.Songs, s.options)
	}
}

// Info is a read-only summary of a session.
type Info struct {
	Room    domain.RoomID   `json:"room"`
	State   domain.State    `json:"state"`
	Creator domain.Player   `json:"creator"`
	Players []domain.Player `json:"players"`
	Round   int             `json:"round"`
	Rounds  int             `json:"rounds"`
	Sources []string        `json:"sources"`
}

func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	info := Info{
		Room:    s.settings.Room,
		State:   s.state,
		Creator: *s.settings.Creator,
		Rounds:  len(s.rounds),
		Sources: append([]string(nil), s.sources...),
	}
	for _, p := range s.roster.Standings() {
		info.Players = append(info.Players, *p)
	}
	if s.current != nil {
		info.Round = s.current.Index
	}
	return info
}

func (s *Session) teardown(ctx context.Context) {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.state = domain.StateEnded
		if s.skip != nil {
			s.skip()
			s.skip = nil
		}
		s.votes = nil
		standings := s.roster.Standings()
		if s.started {
			s.publishLocked(ctx, s.renderer.Final(standings))
		}
		s.mu.Unlock()

		ev := s.logger.Info()
		if len(standings) > 0 {
			ev = ev.Str("winner", string(standings[0].ID)).Int("score", standings[0].Points)
		}
		ev.Msg("game over")

		if err := s.deps.Gateway.DisconnectVoice(ctx, s.settings.Room); err != nil {
			s.logger.Warn().Err(err).Msg("voice disconnect")
		}
		if s.deps.OnClosed != nil {
			s.deps.OnClosed(s.settings.Room)
		}
		close(s.done)
	})
}

func (s *Session) withdrawVoteLocked(id domain.UserID) bool {
	for i, uid := range s.votes {
		if uid == id {
			s.votes = append(s.votes[:i], s.votes[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Session) votersLocked() []*domain.Player {
	out := make([]*domain.Player, 0, len(s.votes))
	for _, id := range s.votes {
		if p, ok := s.roster.Get(id); ok {
			out = append(out, p)
		}
	}
	return out
}

func (s *Session) snapshotLocked() render.Snapshot {
	snap := render.Snapshot{
		Round:   s.current,
		Players: s.roster.Standings(),
		Skips:   s.votersLocked(),
		Sources: s.sources,
	}
	if s.current != nil && s.current.Index >= 2 && s.current.Index-2 < len(s.rounds) {
		snap.Previous = s.rounds[s.current.Index-2]
	}
	return snap
}

func (s *Session) publishLocked(ctx context.Context, doc render.Document) {
	s.doc = doc
	gw := s.deps.Gateway
	if s.statusID == "" {
		id, err := gw.SendStatus(ctx, s.settings.Room, doc)
		if err != nil {
			s.logger.Warn().Err(err).Msg("send status")
			return
		}
		s.statusID = id
		return
	}
	if err := gw.EditStatus(ctx, s.settings.Room, s.statusID, doc); err != nil {
		s.logger.Warn().Err(err).Msg("edit status")
	}
}

// patchLocked updates the named fields of the current round's document,
// building it first if the status still shows something else.
func (s *Session) patchLocked(ctx context.Context, names ...string) {
	if s.current == nil {
		return
	}
	doc := s.doc
	if s.docRound != s.current.Index {
		doc = render.Document{}
		s.docRound = s.current.Index
	}
	s.publishLocked(ctx, s.renderer.Patch(doc, s.snapshotLocked(), names...))
}

func (s *Session) deleteLocked(ctx context.Context, id domain.MessageID) {
	if err := s.deps.Gateway.DeleteMessage(ctx, s.settings.Room, id); err != nil {
		s.logger.Debug().Err(err).Str("message", string(id)).Msg("delete message")
	}
}
