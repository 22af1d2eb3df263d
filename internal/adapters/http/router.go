package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/guessthesong/internal/adapters/ws"
	"github.com/dkeye/guessthesong/internal/app"
	"github.com/dkeye/guessthesong/internal/config"
	"github.com/dkeye/guessthesong/internal/core"
	"github.com/dkeye/guessthesong/internal/domain"
)

// Games is the read side of the running games plus the stop button.
type Games interface {
	Rooms() []core.Info
	Status(room domain.RoomID) (core.Info, bool)
	End(ctx context.Context, room domain.RoomID, user domain.UserID)
}

type Playlists interface {
	List() []domain.Playlist
}

func genClientToken() string {
	idStr := uuid.NewString()
	return idStr
}

func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

type playlistView struct {
	Name   string `json:"name"`
	Emoji  string `json:"emoji"`
	Tracks int    `json:"tracks"`
}

func SetupRouter(ctx context.Context, cfg *config.Config, reg *app.Registry, ctl *ws.Controller, games Games, lists Playlists) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("GuessTheSongSessions", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	api := r.Group("/api")

	api.GET("/ws", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("user", c.GetString("client_token")).Msg("ws endpoint hit")
		ctl.HandleWS(ctx, c)
	})

	api.GET("/me", func(c *gin.Context) {
		uid := domain.UserID(c.GetString("client_token"))
		u, _, err := reg.GetOrCreateUser(uid)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		user, _ := reg.User(u.ID)
		c.JSON(http.StatusOK, user)
	})

	// The name is also kept in the cookie session so it survives reconnects.
	api.PUT("/me", func(c *gin.Context) {
		var req struct {
			Name string `json:"name"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid name"})
			return
		}
		uid := domain.UserID(c.GetString("client_token"))
		if _, _, err := reg.GetOrCreateUser(uid); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := reg.UpdateUsername(uid, req.Name); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := ws.RememberName(c, req.Name); err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Msg("session save")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "session not saved"})
			return
		}
		user, _ := reg.User(uid)
		c.JSON(http.StatusOK, user)
	})

	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": games.Rooms()})
	})

	api.GET("/rooms/:room", func(c *gin.Context) {
		info, ok := games.Status(domain.RoomID(c.Param("room")))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "no game in room"})
			return
		}
		c.JSON(http.StatusOK, info)
	})

	api.POST("/rooms/:room/end", func(c *gin.Context) {
		room := domain.RoomID(c.Param("room"))
		if _, ok := games.Status(room); !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "no game in room"})
			return
		}
		games.End(c.Request.Context(), room, domain.UserID(c.GetString("client_token")))
		c.Status(http.StatusNoContent)
	})

	api.GET("/playlists", func(c *gin.Context) {
		all := lists.List()
		out := make([]playlistView, 0, len(all))
		for _, l := range all {
			out = append(out, playlistView{Name: l.Name, Emoji: l.Emoji, Tracks: l.Len()})
		}
		c.JSON(http.StatusOK, gin.H{"playlists": out})
	})

	return r
}
