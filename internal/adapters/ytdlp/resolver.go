// Package ytdlp resolves tracks to audio stream URLs with yt-dlp.
package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/lrstanley/go-ytdlp"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/guessthesong/internal/domain"
	"github.com/dkeye/guessthesong/internal/playback"
)

const (
	DefaultFormat    = "bestaudio/best"
	DefaultCacheSize = 512
	// Stream URLs handed out by YouTube expire after a few hours.
	DefaultCacheTTL = time.Hour
)

var errNoResult = errors.New("no search result")

type Options struct {
	Format    string
	Proxy     string
	CacheSize int
	CacheTTL  time.Duration
}

// SearchFunc runs one yt-dlp search and returns the first hit.
type SearchFunc func(ctx context.Context, query string) (url string, duration time.Duration, err error)

type Resolver struct {
	search SearchFunc
	cache  *expirable.LRU[string, stream]
}

func New(opts Options) *Resolver {
	if opts.Format == "" {
		opts.Format = DefaultFormat
	}
	return NewWithSearch(opts, command(opts))
}

func NewWithSearch(opts Options, search SearchFunc) *Resolver {
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	return &Resolver{
		search: search,
		cache:  expirable.NewLRU[string, stream](opts.CacheSize, nil, opts.CacheTTL),
	}
}

// Resolve searches by ISRC first, then by "title - artists".
func (r *Resolver) Resolve(ctx context.Context, t domain.Track) (playback.Source, error) {
	if s, ok := r.cache.Get(t.ID); ok {
		return s, nil
	}

	logger := log.With().Str("module", "adapters.ytdlp").Str("track", t.ID).Logger()
	for _, q := range Queries(t) {
		url, dur, err := r.search(ctx, q)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Debug().Err(err).Str("query", q).Msg("search failed")
			continue
		}
		if url == "" {
			continue
		}
		if dur <= 0 {
			dur = t.Duration
		}
		s := stream{url: url, duration: dur}
		r.cache.Add(t.ID, s)
		logger.Debug().Str("query", q).Dur("duration", dur).Msg("stream resolved")
		return s, nil
	}
	return nil, fmt.Errorf("%w: %s", playback.ErrNoStream, t)
}

// Queries lists the yt-dlp searches tried for t, in order.
func Queries(t domain.Track) []string {
	var out []string
	if t.ISRC != "" {
		out = append(out, "ytsearch1:"+t.ISRC)
	}
	text := t.Title + " - " + strings.Join(t.Artists, ",")
	text = strings.NewReplacer(":", "", `"`, "").Replace(text)
	return append(out, "ytsearch1:"+text)
}

func command(opts Options) SearchFunc {
	return func(ctx context.Context, query string) (string, time.Duration, error) {
		cmd := ytdlp.New().
			Quiet().
			NoWarnings().
			Format(opts.Format).
			NoPlaylist().
			NoCheckCertificates().
			Print("%(url)s\t%(duration)s")
		if opts.Proxy != "" {
			cmd.Proxy(opts.Proxy)
		}

		res, err := cmd.Run(ctx, query)
		if err != nil {
			return "", 0, err
		}
		return parseOutput(res.Stdout)
	}
}

func parseOutput(stdout string) (string, time.Duration, error) {
	line, _, _ := strings.Cut(strings.TrimSpace(stdout), "\n")
	url, rawDur, _ := strings.Cut(line, "\t")
	if url == "" || url == "NA" {
		return "", 0, errNoResult
	}
	var dur time.Duration
	if secs, err := strconv.ParseFloat(strings.TrimSpace(rawDur), 64); err == nil {
		dur = time.Duration(secs * float64(time.Second))
	}
	return url, dur, nil
}

type stream struct {
	url      string
	duration time.Duration
}

func (s stream) URL() string             { return s.url }
func (s stream) Duration() time.Duration { return s.duration }
func (s stream) Close() error            { return nil }
