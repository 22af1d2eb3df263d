package core

import "fmt"

// Suppression decides which unmatched messages are deleted while a game runs.
type Suppression string

const (
	// SuppressPlayers deletes failed guesses of active players only.
	SuppressPlayers Suppression = "players"
	// SuppressAll also deletes spectators' messages.
	SuppressAll Suppression = "all"
	// SuppressNone keeps every message.
	SuppressNone Suppression = "none"
)

func ParseSuppression(s string) (Suppression, error) {
	switch Suppression(s) {
	case SuppressPlayers, SuppressAll, SuppressNone:
		return Suppression(s), nil
	case "":
		return SuppressPlayers, nil
	}
	return "", fmt.Errorf("unknown suppression policy %q", s)
}

// ShouldDelete reports whether an unmatched message from a player
// (or a spectator when isPlayer is false) is removed.
func (s Suppression) ShouldDelete(isPlayer bool) bool {
	switch s {
	case SuppressAll:
		return true
	case SuppressNone:
		return false
	default:
		return isPlayer
	}
}
