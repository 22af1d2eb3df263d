package domain

// TitleGuess is the single full-credit title slot of a ledger.
type TitleGuess struct {
	Player *Player
	Text   string
	Points int
}

type ArtistGuess struct {
	Text   string
	Artist string
	Points int
}

// ArtistGuesses collects one player's artist hits for a round.
type ArtistGuesses struct {
	Player  *Player
	Guesses []ArtistGuess
}

// Total is the sum of points the player gained on artists.
func (a *ArtistGuesses) Total() int {
	n := 0
	for _, g := range a.Guesses {
		n += g.Points
	}
	return n
}

// Ledger records who guessed what during one play of a track.
type Ledger struct {
	Title   *TitleGuess
	artists map[UserID]*ArtistGuesses
	order   []UserID
}

// AddArtist appends a guess to the player's entry, creating it on first hit.
func (l *Ledger) AddArtist(p *Player, g ArtistGuess) {
	if l.artists == nil {
		l.artists = make(map[UserID]*ArtistGuesses)
	}
	entry, ok := l.artists[p.ID]
	if !ok {
		entry = &ArtistGuesses{Player: p}
		l.artists[p.ID] = entry
		l.order = append(l.order, p.ID)
	}
	entry.Guesses = append(entry.Guesses, g)
}

func (l *Ledger) ArtistsOf(id UserID) (*ArtistGuesses, bool) {
	e, ok := l.artists[id]
	return e, ok
}

// ArtistEntries returns entries in the order players first scored.
func (l *Ledger) ArtistEntries() []*ArtistGuesses {
	out := make([]*ArtistGuesses, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.artists[id])
	}
	return out
}

// Round is one play instance of a queued track. Index is 1-based.
type Round struct {
	Index    int
	Track    Track
	Ledger   Ledger
	Messages []MessageID

	revealed     map[string]bool
	ArtworkShown bool
}

func NewRound(index int, t Track) *Round {
	return &Round{Index: index, Track: t, revealed: make(map[string]bool)}
}

// TitleRevealed is true once somebody guessed the title.
func (r *Round) TitleRevealed() bool { return r.Ledger.Title != nil }

func (r *Round) Reveal(artist string) { r.revealed[artist] = true }

func (r *Round) IsRevealed(artist string) bool { return r.revealed[artist] }

// RevealedArtists lists revealed artists in track order.
func (r *Round) RevealedArtists() []string {
	out := make([]string, 0, len(r.revealed))
	for _, a := range r.Track.Artists {
		if r.revealed[a] {
			out = append(out, a)
		}
	}
	return out
}

func (r *Round) AllArtistsRevealed() bool {
	for _, a := range r.Track.Artists {
		if !r.revealed[a] {
			return false
		}
	}
	return true
}
