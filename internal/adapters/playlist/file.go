package playlist

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"

	"github.com/dkeye/guessthesong/internal/domain"
)

// File reads playlists from local .yaml, .yml or .json files.
type File struct {
	Dir string
}

type fileTrack struct {
	ID         string   `json:"id" yaml:"id"`
	Title      string   `json:"title" yaml:"title"`
	Artists    []string `json:"artists" yaml:"artists"`
	Album      string   `json:"album" yaml:"album"`
	ArtworkURL string   `json:"artwork_url" yaml:"artwork_url"`
	Link       string   `json:"link" yaml:"link"`
	ISRC       string   `json:"isrc" yaml:"isrc"`
	DurationMS int64    `json:"duration_ms" yaml:"duration_ms"`
}

type filePlaylist struct {
	Name   string      `json:"name" yaml:"name"`
	Emoji  string      `json:"emoji" yaml:"emoji"`
	Tracks []fileTrack `json:"tracks" yaml:"tracks"`
}

func (f File) Fetch(ctx context.Context, ref string) (domain.Playlist, error) {
	if err := ctx.Err(); err != nil {
		return domain.Playlist{}, err
	}
	path := strings.TrimPrefix(ref, SchemeFile+"://")
	if !filepath.IsAbs(path) && f.Dir != "" {
		path = filepath.Join(f.Dir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Playlist{}, fmt.Errorf("read playlist: %w", err)
	}

	var raw filePlaylist
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &raw)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		return domain.Playlist{}, fmt.Errorf("%w: %q", ErrUnsupportedRef, ref)
	}
	if err != nil {
		return domain.Playlist{}, fmt.Errorf("parse playlist %s: %w", path, err)
	}

	out := domain.Playlist{Name: raw.Name, Emoji: raw.Emoji, Ref: ref}
	if out.Name == "" {
		out.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	for i, t := range raw.Tracks {
		if t.Title == "" {
			continue
		}
		id := t.ID
		if id == "" {
			id = fmt.Sprintf("%s#%d", out.Name, i)
		}
		out.Tracks = append(out.Tracks, domain.Track{
			ID:         id,
			Title:      t.Title,
			Artists:    t.Artists,
			Album:      t.Album,
			ArtworkURL: t.ArtworkURL,
			Link:       t.Link,
			ISRC:       t.ISRC,
			Duration:   time.Duration(t.DurationMS) * time.Millisecond,
		})
	}
	return out, nil
}
