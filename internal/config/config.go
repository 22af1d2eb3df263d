package config

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	Secret     string        `mapstructure:"secret"`
	LogLevel   string        `mapstructure:"log_level"`

	Game      Game      `mapstructure:"game"`
	Spotify   Spotify   `mapstructure:"spotify"`
	Ytdlp     Ytdlp     `mapstructure:"ytdlp"`
	RateLimit RateLimit `mapstructure:"rate_limit"`
}

type Game struct {
	TitlePoints  int    `mapstructure:"title_points"`
	ArtistPoints int    `mapstructure:"artist_points"`
	Suppression  string `mapstructure:"suppression"`
	// Rooms allowed to host games. Empty allows all.
	Rooms     []string   `mapstructure:"rooms"`
	Playlists []Playlist `mapstructure:"playlists"`
}

type Playlist struct {
	Label string `mapstructure:"label"`
	Emoji string `mapstructure:"emoji"`
	Ref   string `mapstructure:"ref"`
}

type Spotify struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

func (s Spotify) Enabled() bool { return s.ClientID != "" && s.ClientSecret != "" }

type Ytdlp struct {
	Format    string        `mapstructure:"format"`
	Proxy     string        `mapstructure:"proxy"`
	CacheSize int           `mapstructure:"cache_size"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
}

// RateLimit bounds chat messages per user within Interval.
type RateLimit struct {
	Messages int           `mapstructure:"messages"`
	Interval time.Duration `mapstructure:"interval"`
}

// Loader reads the configuration file and can watch it for changes.
type Loader struct {
	v    *viper.Viper
	file string
}

// NewLoader resolves the config file from --config in args, falling back
// to config/config.<CONFIG_ENV>.yaml.
func NewLoader(args []string) (*Loader, error) {
	fs := pflag.NewFlagSet("server", pflag.ContinueOnError)
	file := fs.String("config", "", "path to the config file")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if *file == "" {
		env := os.Getenv("CONFIG_ENV")
		if env == "" {
			env = "dev"
		}
		*file = fmt.Sprintf("config/config.%s.yaml", env)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(*file)
	v.SetEnvPrefix("GTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	return &Loader{v: v, file: *file}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("secret", "")
	v.SetDefault("log_level", "info")

	v.SetDefault("game.title_points", 10)
	v.SetDefault("game.artist_points", 10)
	v.SetDefault("game.suppression", "players")
	v.SetDefault("game.rooms", []string{})

	v.SetDefault("spotify.client_id", "")
	v.SetDefault("spotify.client_secret", "")

	v.SetDefault("ytdlp.format", "bestaudio/best")
	v.SetDefault("ytdlp.proxy", "")
	v.SetDefault("ytdlp.cache_size", 512)
	v.SetDefault("ytdlp.cache_ttl", "1h")

	v.SetDefault("rate_limit.messages", 5)
	v.SetDefault("rate_limit.interval", "3s")
}

func (l *Loader) File() string { return l.file }

// Load reads the file. A missing file is not an error: defaults apply.
// Without a configured secret a random one is generated and kept for
// later reloads.
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", l.file).Err(err).Msg("config file not loaded, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", l.file).Msg("config loaded")
	}
	cfg, err := l.decode()
	if err != nil {
		return nil, err
	}
	if cfg.Secret == "" {
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		l.v.SetDefault("secret", secret)
		cfg.Secret = secret
		log.Warn().Str("module", "config").Msg("no secret configured, generated one; sessions will not survive restarts")
	}
	return cfg, nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func (l *Loader) decode() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("static", cfg.StaticPath).
		Int("playlists", len(cfg.Game.Playlists)).Msg("config")
	return &cfg, nil
}

// Watch calls onChange with the reloaded configuration whenever the file
// is written, until ctx ends.
func (l *Loader) Watch(ctx context.Context, onChange func(*Config)) error {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if ctx.Err() != nil || e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
			return
		}
		cfg, err := l.decode()
		if err != nil {
			log.Error().Str("module", "config").Err(err).Msg("reload failed")
			return
		}
		log.Info().Str("module", "config").Str("file", e.Name).Msg("config reloaded")
		onChange(cfg)
	})
	l.v.WatchConfig()
	<-ctx.Done()
	return nil
}

// Load is NewLoader followed by Loader.Load.
func Load(args []string) (*Config, error) {
	l, err := NewLoader(args)
	if err != nil {
		return nil, err
	}
	return l.Load()
}
