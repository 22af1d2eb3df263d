// Package playlist fetches track lists from playlist providers.
package playlist

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/guessthesong/internal/domain"
)

var (
	ErrUnsupportedRef = errors.New("unsupported playlist reference")
	ErrEmptyPlaylist  = errors.New("playlist has no playable tracks")
)

type Provider interface {
	Fetch(ctx context.Context, ref string) (domain.Playlist, error)
}

const (
	SchemeSpotify = "spotify"
	SchemeFile    = "file"
)

// Router dispatches a reference to the provider registered for its scheme.
// Spotify web links route to the spotify scheme and bare paths to file.
type Router struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

func NewRouter() *Router {
	return &Router{providers: make(map[string]Provider)}
}

func (r *Router) Register(scheme string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[scheme] = p
}

func (r *Router) Fetch(ctx context.Context, ref string) (domain.Playlist, error) {
	scheme := Scheme(ref)
	r.mu.RLock()
	p, ok := r.providers[scheme]
	r.mu.RUnlock()
	if !ok {
		return domain.Playlist{}, fmt.Errorf("%w: %q", ErrUnsupportedRef, ref)
	}

	list, err := p.Fetch(ctx, ref)
	if err != nil {
		return domain.Playlist{}, err
	}
	if len(list.Tracks) == 0 {
		return domain.Playlist{}, fmt.Errorf("%w: %q", ErrEmptyPlaylist, ref)
	}
	list.Ref = ref
	log.Info().Str("module", "adapters.playlist").Str("scheme", scheme).Str("name", list.Name).Int("tracks", len(list.Tracks)).Msg("playlist fetched")
	return list, nil
}

// Scheme names the provider a reference belongs to.
func Scheme(ref string) string {
	if strings.HasPrefix(ref, SchemeSpotify+":") {
		return SchemeSpotify
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	switch {
	case strings.HasSuffix(u.Hostname(), "spotify.com"):
		return SchemeSpotify
	case u.Scheme == "":
		return SchemeFile
	default:
		return u.Scheme
	}
}
