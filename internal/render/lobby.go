package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dkeye/guessthesong/internal/domain"
)

// PlaylistOption is a selectable playlist shown in the lobby.
type PlaylistOption struct {
	Name  string
	Emoji string
	Songs int
}

// Lobby renders the settings document players react to before the game.
func (Renderer) Lobby(players []*domain.Player, songs int, options []PlaylistOption) Document {
	d := Document{
		Color:       ColorGrey,
		Title:       "⚙️ Game Settings",
		Description: "React to the message to join, when you are all ready select the playlists.",
		Reactions:   []string{JoinReaction},
	}
	names := make([]string, 0, len(players))
	for _, p := range players {
		names = append(names, p.Mention())
	}
	d.add(FieldPlayers, strings.Join(names, ", "), true)
	d.add(FieldSongs, strconv.Itoa(songs), true)

	opts := make([]Option, 0, len(options))
	lines := make([]string, 0, len(options))
	for _, o := range options {
		desc := fmt.Sprintf("%d songs", o.Songs)
		opts = append(opts, Option{Label: o.Name, Description: desc, Emoji: o.Emoji})
		lines = append(lines, strings.TrimSpace(fmt.Sprintf("%s %s (%s)", o.Emoji, o.Name, desc)))
	}
	if len(lines) > 0 {
		d.add(FieldLists, strings.Join(lines, "\n"), false)
	}

	d.Controls = []Control{
		{ID: ControlPlaylists, Kind: ControlSelect, Label: "Choose some playlists...", Options: opts, MaxValues: len(opts)},
		{ID: ControlAddPlaylist, Kind: ControlButton, Label: "Add Playlist", Emoji: "➕"},
	}
	return d
}

// Starting is shown while the selected songs are being queued.
func (Renderer) Starting() Document {
	return Document{Color: ColorOrange, Title: "Starting..."}
}

// Final renders the game-over leaderboard. standings must already be ranked.
func (Renderer) Final(standings []*domain.Player) Document {
	d := Document{Color: ColorYellow, Title: "🛑 Game Over 🛑"}
	if len(standings) == 0 {
		d.Description = "Nobody played"
		return d
	}
	winner := standings[0]
	d.add("The Winner is", "🏆 "+winner.Mention(), true)
	d.add("Score", strconv.Itoa(winner.Points), true)
	d.add(blank, blank, true)

	if rest := standings[1:]; len(rest) > 0 {
		names := make([]string, 0, len(rest))
		points := make([]string, 0, len(rest))
		for i, p := range rest {
			names = append(names, fmt.Sprintf("%d. %s", i+2, p.Mention()))
			points = append(points, strconv.Itoa(p.Points))
		}
		d.add(FieldPlayers, strings.Join(names, "\n"), true)
		d.add(FieldPoints, strings.Join(points, "\n"), true)
	}
	return d
}
