package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dkeye/guessthesong/internal/domain"
	"github.com/dkeye/guessthesong/internal/scoring"
)

const (
	FieldTitle    = "Title"
	FieldArtists  = "Artists"
	FieldPlayers  = "Players"
	FieldPoints   = "Points"
	FieldSkips    = "Skips"
	FieldLastSong = "About the last song"
	FieldSongs    = "Songs number"
	FieldLists    = "Playlists"

	ControlSkip        = "game:button:skip"
	ControlPlaylists   = "settings:dropdown:playlist"
	ControlAddPlaylist = "settings:button:add_playlist"

	JoinReaction = "🙋‍♂️"
)

// Snapshot is the game state a round document is derived from.
type Snapshot struct {
	Round    *domain.Round
	Previous *domain.Round
	Players  []*domain.Player
	Skips    []*domain.Player
	Sources  []string
}

type Renderer struct{}

// Build renders a round document from scratch.
func (Renderer) Build(s Snapshot) Document {
	d := Document{
		Color:       ColorGreen,
		Title:       fmt.Sprintf("Guess the song #%d", s.Round.Index),
		Description: fmt.Sprintf("Songs from %s\nSend messages with the name of the song!", strings.Join(s.Sources, ", ")),
	}
	d.add(FieldTitle, titleValue(s.Round), true)
	d.add(FieldArtists, artistsValue(s.Round), true)
	d.add(blank, blank, true)
	d.add(FieldPlayers, playersValue(s.Players), true)
	d.add(FieldPoints, pointsValue(s.Players), true)
	d.add(FieldSkips, skipsValue(s.Skips, len(s.Players)), true)
	if s.Previous != nil {
		d.add(FieldLastSong, Recap(s.Previous), false)
	}
	if s.Round.ArtworkShown {
		d.Thumbnail = s.Round.Track.ArtworkURL
	}
	d.Controls = []Control{SkipControl(len(s.Skips), len(s.Players))}
	return d
}

// Patch refreshes the named fields of an existing round document in place
// of a rebuild. Players, Points and Skips are always recomputed.
func (r Renderer) Patch(d Document, s Snapshot, names ...string) Document {
	if len(d.Fields) == 0 {
		return r.Build(s)
	}
	out := d.Clone()
	for _, name := range names {
		switch {
		case strings.EqualFold(name, FieldTitle):
			out.Set(FieldTitle, titleValue(s.Round))
		case strings.EqualFold(name, FieldArtists):
			out.Set(FieldArtists, artistsValue(s.Round))
		}
	}
	out.Set(FieldPlayers, playersValue(s.Players))
	out.Set(FieldPoints, pointsValue(s.Players))
	out.Set(FieldSkips, skipsValue(s.Skips, len(s.Players)))
	if s.Round.ArtworkShown {
		out.Thumbnail = s.Round.Track.ArtworkURL
	}
	for i := range out.Controls {
		if out.Controls[i].ID == ControlSkip {
			out.Controls[i] = SkipControl(len(s.Skips), len(s.Players))
		}
	}
	return out
}

// SkipControl is the skip button with its vote tally.
func SkipControl(votes, players int) Control {
	label := "Skip"
	if votes > 0 {
		label = fmt.Sprintf("Skip %d/%d", votes, players)
	}
	return Control{ID: ControlSkip, Kind: ControlButton, Label: label}
}

// Recap summarizes a finished round's ledger.
func Recap(r *domain.Round) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎵 Title: **%s**\n", r.Track.Title)
	fmt.Fprintf(&b, "✏️ Artists: **%s**\n\n", strings.Join(r.Track.Artists, ", "))
	if t := r.Ledger.Title; t != nil {
		fmt.Fprintf(&b, "%s guessed the **title** with `%s` **[+%d]**", t.Player.Mention(), t.Text, t.Points)
	}
	for _, entry := range r.Ledger.ArtistEntries() {
		parts := make([]string, 0, len(entry.Guesses))
		for _, g := range entry.Guesses {
			parts = append(parts, fmt.Sprintf("`%s` **[+%d]**", g.Text, g.Points))
		}
		fmt.Fprintf(&b, "\n%s guessed %s", entry.Player.Mention(), strings.Join(parts, " | "))
	}
	return b.String()
}

func titleValue(r *domain.Round) string {
	if !r.TitleRevealed() {
		return scoring.TitleView(r)
	}
	return bold(scoring.TitleView(r))
}

func artistsValue(r *domain.Round) string {
	if len(r.RevealedArtists()) == 0 {
		return scoring.ArtistsView(r)
	}
	return bold(scoring.ArtistsView(r))
}

func bold(s string) string { return "**" + s + "**" }

func playersValue(players []*domain.Player) string {
	names := make([]string, 0, len(players))
	for _, p := range players {
		names = append(names, p.Mention())
	}
	return strings.Join(names, "\n")
}

func pointsValue(players []*domain.Player) string {
	points := make([]string, 0, len(players))
	for _, p := range players {
		points = append(points, strconv.Itoa(p.Points))
	}
	return strings.Join(points, "\n")
}

func skipsValue(votes []*domain.Player, players int) string {
	if len(votes) == 0 {
		return fmt.Sprintf("0/%d", players)
	}
	names := make([]string, 0, len(votes))
	for _, p := range votes {
		names = append(names, p.Mention())
	}
	return strings.Join(names, ", ")
}
