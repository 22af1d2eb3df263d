package domain

// Playlist is a named, selectable set of tracks.
type Playlist struct {
	Name   string  `json:"name" yaml:"name"`
	Emoji  string  `json:"emoji,omitempty" yaml:"emoji"`
	Ref    string  `json:"ref" yaml:"ref"`
	Tracks []Track `json:"tracks" yaml:"tracks"`
}

func (p Playlist) Len() int { return len(p.Tracks) }
