package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/replayrelay/internal/adapters/gamestate"
	"github.com/dkeye/replayrelay/internal/app"
	"github.com/dkeye/replayrelay/internal/app/orch"
	"github.com/dkeye/replayrelay/internal/config"
	"github.com/dkeye/replayrelay/internal/domain"
)

const requestIDHeader = "X-Request-ID"

func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

type handlers struct {
	orch    *orch.Orchestrator
	tracker *gamestate.Tracker
}

func SetupRouter(cfg *config.Config, o *orch.Orchestrator, tracker *gamestate.Tracker) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())

	h := &handlers{orch: o, tracker: tracker}

	limiter := NewStartRateLimiter(cfg.StartLimit, cfg.StartWindow)

	api := r.Group("/api")
	api.POST("/replays", limiter.Middleware(), h.startRecording)
	api.POST("/spectate", limiter.Middleware(), h.startSpectate)
	api.GET("/sessions", h.listSessions)
	api.DELETE("/sessions/:id", h.stopSession)

	api.PUT("/games/:id", h.putGame)
	api.DELETE("/games/:id", h.removeGame)
	api.PUT("/players/:id", h.playerOnline)
	api.DELETE("/players/:id", h.playerOffline)

	log.Info().Str("module", "adapters.http").Msg("router setup")
	return r
}

func errorJSON(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func (h *handlers) startRecording(c *gin.Context) {
	var req struct {
		GameID *int `json:"game_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.GameID == nil {
		errorJSON(c, http.StatusBadRequest, "game_id is required")
		return
	}

	started, err := h.orch.StartRecording(c.Request.Context(), domain.GameID(*req.GameID))
	if errors.Is(err, orch.ErrAlreadyRecording) {
		errorJSON(c, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("request_id", c.GetString("request_id")).Msg("start recording")
		errorJSON(c, http.StatusInternalServerError, "could not open replay server")
		return
	}
	c.JSON(http.StatusCreated, started)
}

func (h *handlers) startSpectate(c *gin.Context) {
	started, err := h.orch.StartSpectate(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("request_id", c.GetString("request_id")).Msg("start spectate")
		errorJSON(c, http.StatusInternalServerError, "could not open live replay server")
		return
	}
	c.JSON(http.StatusCreated, started)
}

func (h *handlers) listSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessions": h.orch.Registry.Snapshot()})
}

func (h *handlers) stopSession(c *gin.Context) {
	err := h.orch.Stop(domain.SessionID(c.Param("id")))
	if errors.Is(err, app.ErrSessionNotFound) {
		errorJSON(c, http.StatusNotFound, err.Error())
		return
	}
	c.Status(http.StatusNoContent)
}

func pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "id must be an integer")
		return 0, false
	}
	return id, true
}

func (h *handlers) putGame(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var game domain.GameInfo
	if err := c.ShouldBindJSON(&game); err != nil {
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}
	game.ID = domain.GameID(id)
	h.tracker.PutGame(game)
	c.Status(http.StatusNoContent)
}

func (h *handlers) removeGame(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if !h.tracker.RemoveGame(domain.GameID(id)) {
		errorJSON(c, http.StatusNotFound, "game not tracked")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) playerOnline(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "username is required")
		return
	}
	h.tracker.PlayerOnline(domain.PlayerInfo{ID: domain.PlayerID(id), Username: req.Username})
	c.Status(http.StatusNoContent)
}

func (h *handlers) playerOffline(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if !h.tracker.PlayerOffline(domain.PlayerID(id)) {
		errorJSON(c, http.StatusNotFound, "player not online")
		return
	}
	c.Status(http.StatusNoContent)
}
