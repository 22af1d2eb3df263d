package playlist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/dkeye/guessthesong/internal/domain"
)

const (
	spotifyAPI      = "https://api.spotify.com/v1"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	// maxPages bounds pagination of very large playlists.
	maxPages = 20
)

var ErrBadSpotifyRef = errors.New("not a spotify playlist reference")

// Spotify reads public playlists from the Spotify Web API.
type Spotify struct {
	BaseURL string
	client  *http.Client
}

// NewSpotify authenticates with the client credentials flow. The token is
// fetched and refreshed lazily by the returned client.
func NewSpotify(ctx context.Context, clientID, clientSecret string) *Spotify {
	cfg := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyTokenURL,
	}
	return NewSpotifyWithClient(cfg.Client(ctx), spotifyAPI)
}

func NewSpotifyWithClient(c *http.Client, baseURL string) *Spotify {
	return &Spotify{BaseURL: strings.TrimRight(baseURL, "/"), client: c}
}

type spotifyPlaylist struct {
	Name   string      `json:"name"`
	Tracks spotifyPage `json:"tracks"`
}

type spotifyPage struct {
	Items []struct {
		Track *spotifyTrack `json:"track"`
	} `json:"items"`
	Next string `json:"next"`
}

type spotifyTrack struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	DurationMS int64  `json:"duration_ms"`
	IsLocal    bool   `json:"is_local"`
	Artists    []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Album *struct {
		Name   string `json:"name"`
		Images []struct {
			URL string `json:"url"`
		} `json:"images"`
	} `json:"album"`
	ExternalIDs struct {
		ISRC string `json:"isrc"`
	} `json:"external_ids"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

func (s *Spotify) Fetch(ctx context.Context, ref string) (domain.Playlist, error) {
	id, err := SpotifyPlaylistID(ref)
	if err != nil {
		return domain.Playlist{}, err
	}

	var pl spotifyPlaylist
	if err := s.get(ctx, s.BaseURL+"/playlists/"+url.PathEscape(id), &pl); err != nil {
		return domain.Playlist{}, fmt.Errorf("spotify playlist %s: %w", id, err)
	}

	out := domain.Playlist{Name: pl.Name, Ref: ref}
	page := pl.Tracks
	for i := 0; ; i++ {
		for _, item := range page.Items {
			if t, ok := item.Track.toDomain(); ok {
				out.Tracks = append(out.Tracks, t)
			}
		}
		if page.Next == "" || i+1 >= maxPages {
			break
		}
		next := spotifyPage{}
		if err := s.get(ctx, page.Next, &next); err != nil {
			return domain.Playlist{}, fmt.Errorf("spotify playlist %s page %d: %w", id, i+2, err)
		}
		page = next
	}
	return out, nil
}

func (s *Spotify) get(ctx context.Context, u string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func (t *spotifyTrack) toDomain() (domain.Track, bool) {
	if t == nil || t.ID == "" || t.IsLocal {
		return domain.Track{}, false
	}
	out := domain.Track{
		ID:       t.ID,
		Title:    t.Name,
		Link:     t.ExternalURLs.Spotify,
		ISRC:     t.ExternalIDs.ISRC,
		Duration: time.Duration(t.DurationMS) * time.Millisecond,
	}
	for _, a := range t.Artists {
		out.Artists = append(out.Artists, a.Name)
	}
	if t.Album != nil {
		out.Album = t.Album.Name
		if len(t.Album.Images) > 0 {
			out.ArtworkURL = t.Album.Images[0].URL
		}
	}
	return out, true
}

// SpotifyPlaylistID extracts the playlist id from a spotify URI
// ("spotify:playlist:<id>") or web link.
func SpotifyPlaylistID(ref string) (string, error) {
	if rest, ok := strings.CutPrefix(ref, "spotify:playlist:"); ok && rest != "" {
		return rest, nil
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadSpotifyRef, err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+1 < len(parts); i++ {
		if parts[i] == "playlist" && parts[i+1] != "" {
			return parts[i+1], nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrBadSpotifyRef, ref)
}
