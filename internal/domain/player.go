package domain

import "fmt"

// Player is a user taking part in a game. Identity is the user id only;
// Points never participate in comparisons.
type Player struct {
	ID     UserID `json:"id"`
	Name   string `json:"name"`
	Points int    `json:"points"`
}

func NewPlayer(u *User) *Player {
	return &Player{ID: u.ID, Name: u.Username}
}

// Is reports whether both values denote the same user.
func (p *Player) Is(other *Player) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.ID == other.ID
}

// Mention is the display form used in rendered documents.
func (p *Player) Mention() string {
	if p.Name == "" {
		return fmt.Sprintf("<@%s>", p.ID)
	}
	return "@" + p.Name
}

func (p *Player) String() string { return p.Mention() }
