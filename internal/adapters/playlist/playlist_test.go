package playlist

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/guessthesong/internal/domain"
)

func TestScheme(t *testing.T) {
	cases := map[string]string{
		"spotify:playlist:abc":                          SchemeSpotify,
		"https://open.spotify.com/playlist/abc?si=1234": SchemeSpotify,
		"file://rock.yaml":                              SchemeFile,
		"rock.yaml":                                     SchemeFile,
		"ftp://example.com/x":                           "ftp",
	}
	for ref, want := range cases {
		assert.Equal(t, want, Scheme(ref), ref)
	}
}

func TestSpotifyPlaylistID(t *testing.T) {
	id, err := SpotifyPlaylistID("https://open.spotify.com/playlist/37i9dQZEVXbMDoHDwVN2tF?si=ab558af4e5be421d")
	require.NoError(t, err)
	assert.Equal(t, "37i9dQZEVXbMDoHDwVN2tF", id)

	id, err = SpotifyPlaylistID("spotify:playlist:xyz")
	require.NoError(t, err)
	assert.Equal(t, "xyz", id)

	_, err = SpotifyPlaylistID("https://open.spotify.com/album/xyz")
	assert.ErrorIs(t, err, ErrBadSpotifyRef)
}

func TestSpotifyFetchFollowsPages(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/playlists/pl1":
			fmt.Fprintf(w, `{
				"name": "Top 50",
				"tracks": {
					"items": [
						{"track": {"id": "t1", "name": "Song One", "duration_ms": 180000,
							"artists": [{"name": "A"}, {"name": "B"}],
							"album": {"name": "Alb", "images": [{"url": "https://img/1"}]},
							"external_ids": {"isrc": "ISRC1"},
							"external_urls": {"spotify": "https://open.spotify.com/track/t1"}}},
						{"track": null},
						{"track": {"id": "", "name": "Local", "is_local": true}}
					],
					"next": "%s/next"
				}
			}`, srv.URL)
		case "/next":
			fmt.Fprint(w, `{"items": [{"track": {"id": "t2", "name": "Song Two", "artists": [{"name": "C"}]}}], "next": null}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	s := NewSpotifyWithClient(srv.Client(), srv.URL)
	list, err := s.Fetch(context.Background(), "https://open.spotify.com/playlist/pl1")
	require.NoError(t, err)

	assert.Equal(t, "Top 50", list.Name)
	require.Len(t, list.Tracks, 2)
	assert.Equal(t, domain.Track{
		ID:         "t1",
		Title:      "Song One",
		Artists:    []string{"A", "B"},
		Album:      "Alb",
		ArtworkURL: "https://img/1",
		Link:       "https://open.spotify.com/track/t1",
		ISRC:       "ISRC1",
		Duration:   3 * time.Minute,
	}, list.Tracks[0])
	assert.Equal(t, "t2", list.Tracks[1].ID)
}

func TestSpotifyFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "nope"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewSpotifyWithClient(srv.Client(), srv.URL).Fetch(context.Background(), "spotify:playlist:x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestFileFetch(t *testing.T) {
	dir := t.TempDir()
	yamlDoc := `name: Rock
emoji: "🎸"
tracks:
  - id: r1
    title: Rock One
    artists: [Band]
    duration_ms: 200000
  - title: Untitled id
    artists: [Other]
  - artists: [No title]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rock.yaml"), []byte(yamlDoc), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pop.json"),
		[]byte(`{"tracks": [{"id": "p1", "title": "Pop One", "artists": ["Singer"]}]}`), 0o600))

	f := File{Dir: dir}
	rock, err := f.Fetch(context.Background(), "file://rock.yaml")
	require.NoError(t, err)
	assert.Equal(t, "Rock", rock.Name)
	assert.Equal(t, "🎸", rock.Emoji)
	require.Len(t, rock.Tracks, 2)
	assert.Equal(t, 200*time.Second, rock.Tracks[0].Duration)
	assert.Equal(t, "Rock#1", rock.Tracks[1].ID)

	pop, err := f.Fetch(context.Background(), "pop.json")
	require.NoError(t, err)
	assert.Equal(t, "pop", pop.Name)
	require.Len(t, pop.Tracks, 1)

	_, err = f.Fetch(context.Background(), "missing.yaml")
	assert.Error(t, err)
}

func TestRouter(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.yaml"), []byte("name: Empty\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "one.yaml"),
		[]byte("tracks:\n  - {id: x, title: X, artists: [Y]}\n"), 0o600))

	r := NewRouter()
	r.Register(SchemeFile, File{Dir: dir})

	list, err := r.Fetch(context.Background(), "one.yaml")
	require.NoError(t, err)
	assert.Equal(t, "one.yaml", list.Ref)

	_, err = r.Fetch(context.Background(), "empty.yaml")
	assert.ErrorIs(t, err, ErrEmptyPlaylist)

	_, err = r.Fetch(context.Background(), "spotify:playlist:x")
	assert.ErrorIs(t, err, ErrUnsupportedRef)
}
