package domain

import (
	"fmt"
	"strings"
	"time"
)

// Track is immutable song metadata as returned by a playlist provider.
type Track struct {
	ID         string        `json:"id" yaml:"id"`
	Title      string        `json:"title" yaml:"title"`
	Artists    []string      `json:"artists" yaml:"artists"`
	Album      string        `json:"album,omitempty" yaml:"album"`
	ArtworkURL string        `json:"artwork_url,omitempty" yaml:"artwork_url"`
	Link       string        `json:"link,omitempty" yaml:"link"`
	ISRC       string        `json:"isrc,omitempty" yaml:"isrc"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
}

func (t Track) Equal(other Track) bool { return t.ID == other.ID }

func (t Track) String() string {
	return fmt.Sprintf("%s - %s [%s]", t.Title, strings.Join(t.Artists, ", "), t.Album)
}
