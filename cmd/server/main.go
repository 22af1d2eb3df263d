package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	router "github.com/dkeye/guessthesong/internal/adapters/http"
	"github.com/dkeye/guessthesong/internal/adapters/playlist"
	"github.com/dkeye/guessthesong/internal/adapters/stream"
	"github.com/dkeye/guessthesong/internal/adapters/ws"
	"github.com/dkeye/guessthesong/internal/adapters/ytdlp"
	"github.com/dkeye/guessthesong/internal/app"
	"github.com/dkeye/guessthesong/internal/app/orch"
	"github.com/dkeye/guessthesong/internal/config"
	"github.com/dkeye/guessthesong/internal/core"
	"github.com/dkeye/guessthesong/internal/domain"
	"github.com/dkeye/guessthesong/internal/scoring"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	loader, err := config.NewLoader(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("bad arguments")
	}
	cfg, err := loader.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	settings, err := gameSettings(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("bad game config")
	}

	providers := playlist.NewRouter()
	providers.Register(playlist.SchemeFile, playlist.File{})
	if cfg.Spotify.Enabled() {
		providers.Register(playlist.SchemeSpotify, playlist.NewSpotify(ctx, cfg.Spotify.ClientID, cfg.Spotify.ClientSecret))
	} else {
		log.Warn().Msg("spotify credentials missing, only file playlists are available")
	}

	catalog := app.NewCatalog(providers)
	if err := catalog.Load(ctx, catalogEntries(cfg)); err != nil {
		log.Warn().Err(err).Msg("no playlist could be loaded")
	}

	hub := ws.NewHub(ws.SimplePolicy{})
	engine := stream.NewEngine(hub)
	resolver := ytdlp.New(ytdlp.Options{
		Format:    cfg.Ytdlp.Format,
		Proxy:     cfg.Ytdlp.Proxy,
		CacheSize: cfg.Ytdlp.CacheSize,
		CacheTTL:  cfg.Ytdlp.CacheTTL,
	})
	reg := app.NewRegistry()

	games := orch.New(ctx, reg, catalog, hub, resolver, engine, settings)

	limiter := ws.NewRoomRateLimiter(cfg.RateLimit.Messages, cfg.RateLimit.Interval)
	ctl := ws.NewController(games, reg, hub, limiter, ws.Options{
		ReadLimit:  cfg.ReadLimit,
		PingPeriod: cfg.PingPeriod,
	})

	r := router.SetupRouter(ctx, cfg, reg, ctl, games, catalog)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("Guess the Song server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return loader.Watch(gctx, func(next *config.Config) {
			s, err := gameSettings(next)
			if err != nil {
				log.Error().Err(err).Msg("ignoring reloaded game config")
				return
			}
			games.UpdateSettings(s)
			if err := catalog.Load(gctx, catalogEntries(next)); err != nil {
				log.Warn().Err(err).Msg("catalog reload failed, keeping previous playlists")
			}
		})
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		games.Shutdown(shutdownCtx)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server error")
	}
	log.Info().Msg("Server exited gracefully")
}

func gameSettings(cfg *config.Config) (orch.Settings, error) {
	sup, err := core.ParseSuppression(cfg.Game.Suppression)
	if err != nil {
		return orch.Settings{}, err
	}
	s := orch.Settings{
		Points:      scoring.Points{Title: cfg.Game.TitlePoints, Artist: cfg.Game.ArtistPoints},
		Suppression: sup,
	}
	for _, room := range cfg.Game.Rooms {
		s.Rooms = append(s.Rooms, domain.RoomID(room))
	}
	return s, nil
}

func catalogEntries(cfg *config.Config) []app.CatalogEntry {
	out := make([]app.CatalogEntry, 0, len(cfg.Game.Playlists))
	for _, p := range cfg.Game.Playlists {
		out = append(out, app.CatalogEntry{Label: p.Label, Emoji: p.Emoji, Ref: p.Ref})
	}
	return out
}
