package scoring

import (
	"strings"

	"github.com/dkeye/guessthesong/internal/domain"
)

const hidden = "???"

// Points configures how much a correct fact is worth.
type Points struct {
	Title  int
	Artist int
}

// DefaultPoints mirrors the stock game configuration.
var DefaultPoints = Points{Title: 10, Artist: 10}

// PerArtist is the share awarded for one artist. Remainders are dropped.
func (p Points) PerArtist(t domain.Track) int {
	if len(t.Artists) == 0 {
		return 0
	}
	return p.Artist / len(t.Artists)
}

// MatchesTitle never matches a guess that normalizes to nothing.
func MatchesTitle(guess string, t domain.Track) bool {
	n := Normalize(guess)
	return n != "" && n == Normalize(t.Title)
}

// CheckTitle awards the title to player when guess matches and nobody
// scored the title of this round yet. It reports the awarded points.
func CheckTitle(p *domain.Player, r *domain.Round, guess string, pts Points) (int, bool) {
	if r == nil || r.TitleRevealed() || !MatchesTitle(guess, r.Track) {
		return 0, false
	}
	p.Points += pts.Title
	r.Ledger.Title = &domain.TitleGuess{Player: p, Text: guess, Points: pts.Title}
	return pts.Title, true
}

// ArtistHit describes a successful artist guess.
type ArtistHit struct {
	Artist   string
	Points   int
	Complete bool
	View     string
}

// CheckArtist looks for a track artist matching guess that is not already
// shown in view, the currently rendered artists text.
func CheckArtist(p *domain.Player, r *domain.Round, guess, view string, pts Points) (ArtistHit, bool) {
	if r == nil {
		return ArtistHit{}, false
	}
	shown := strings.ToLower(view)
	want := Normalize(guess)
	if want == "" {
		return ArtistHit{}, false
	}

	artist := ""
	for _, a := range r.Track.Artists {
		if Normalize(a) == want && !strings.Contains(shown, strings.ToLower(a)) {
			artist = a
			break
		}
	}
	if artist == "" {
		return ArtistHit{}, false
	}

	r.Reveal(artist)
	complete := true
	for _, a := range r.Track.Artists {
		if r.IsRevealed(a) {
			continue
		}
		if strings.Contains(shown, strings.ToLower(a)) {
			r.Reveal(a)
			continue
		}
		complete = false
	}

	points := pts.PerArtist(r.Track)
	p.Points += points
	r.Ledger.AddArtist(p, domain.ArtistGuess{Text: guess, Artist: artist, Points: points})

	return ArtistHit{Artist: artist, Points: points, Complete: complete, View: ArtistsView(r)}, true
}

// ArtistsView is the artists text as players see it.
func ArtistsView(r *domain.Round) string {
	revealed := r.RevealedArtists()
	if len(revealed) == 0 {
		return hidden
	}
	view := strings.Join(revealed, ", ")
	if !r.AllArtistsRevealed() {
		view += ", " + hidden
	}
	return view
}

// TitleView is the title text as players see it.
func TitleView(r *domain.Round) string {
	if r.TitleRevealed() {
		return r.Track.Title
	}
	return hidden
}
