package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ostap/huddle/internal/adapters/signal"
	"github.com/ostap/huddle/internal/app"
	"github.com/ostap/huddle/internal/auth"
	"github.com/ostap/huddle/internal/config"
	"github.com/ostap/huddle/internal/directory"
	"github.com/ostap/huddle/internal/domain"
)

func SetupRouter(ctx context.Context, cfg *config.Config, orch *app.Orchestrator, dir directory.Directory, verifier auth.Verifier) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	if cfg.Mode == "debug" {
		if jv, ok := verifier.(*auth.JWTVerifier); ok {
			r.POST("/api/token", devTokenHandler(jv))
		}
	}

	api := r.Group("/api")
	api.Use(BearerAuth(verifier))

	// GET /api/meetings — live meetings on this relay
	api.GET("/meetings", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"meetings": orch.Meetings.List()})
	})

	// POST /api/meetings — create a meeting hosted by the caller
	api.POST("/meetings", func(c *gin.Context) {
		var req struct {
			Name            string `json:"name"`
			MaxParticipants int    `json:"max_participants"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}
		if req.MaxParticipants <= 0 {
			req.MaxParticipants = 10
		}
		host := domain.UserID(c.GetString("user_id"))
		meeting, err := dir.CreateMeeting(c.Request.Context(), host, req.Name, req.MaxParticipants)
		if err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Msg("create meeting")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
			return
		}
		c.JSON(http.StatusCreated, meeting)
	})

	// GET /api/meetings/:id — directory metadata plus live counts
	api.GET("/meetings/:id", func(c *gin.Context) {
		id := domain.MeetingID(c.Param("id"))
		meeting, err := dir.GetMeeting(c.Request.Context(), id)
		if err != nil {
			writeDirectoryError(c, err)
			return
		}
		active, err := dir.CountActive(c.Request.Context(), id)
		if err != nil {
			writeDirectoryError(c, err)
			return
		}
		connected := 0
		if sess, ok := orch.Meetings.Get(id); ok {
			connected = sess.MemberCount()
		}
		resp := gin.H{
			"meeting":   meeting,
			"active":    active,
			"connected": connected,
		}
		// the join history is host-only
		if meeting.IsHost(domain.UserID(c.GetString("user_id"))) {
			participants, err := dir.ListParticipants(c.Request.Context(), id)
			if err != nil {
				writeDirectoryError(c, err)
				return
			}
			resp["participants"] = participants
		}
		c.JSON(http.StatusOK, resp)
	})

	// POST /api/meetings/:id/participants — host pre-approves a user
	api.POST("/meetings/:id/participants", func(c *gin.Context) {
		var req struct {
			User string `json:"user"`
		}
		if err := c.BindJSON(&req); err != nil || req.User == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})
			return
		}
		id := domain.MeetingID(c.Param("id"))
		meeting, err := dir.GetMeeting(c.Request.Context(), id)
		if err != nil {
			writeDirectoryError(c, err)
			return
		}
		if !meeting.IsHost(domain.UserID(c.GetString("user_id"))) {
			c.JSON(http.StatusForbidden, gin.H{"error": "not authorized"})
			return
		}
		if err := dir.ApproveParticipant(c.Request.Context(), id, domain.UserID(req.User)); err != nil {
			writeDirectoryError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	// DELETE /api/meetings/:id — host ends the meeting
	api.DELETE("/meetings/:id", func(c *gin.Context) {
		id := domain.MeetingID(c.Param("id"))
		host := domain.UserID(c.GetString("user_id"))
		if err := orch.EndMeeting(c.Request.Context(), host, id); err != nil {
			writeDirectoryError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	ctrl := signal.NewController(orch, cfg)
	api.GET("/ws/signal", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("user", c.GetString("user_id")).Msg("ws signal endpoint hit")
		ctrl.HandleSignal(ctx, c)
	})

	return r
}

func writeDirectoryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrMeetingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "meeting not found"})
	case errors.Is(err, domain.ErrNotAuthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized"})
	default:
		log.Error().Err(err).Str("module", "adapters.http").Msg("directory error")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
	}
}

// devTokenHandler mints short-lived tokens in debug mode so a browser
// client can be exercised without the account service.
func devTokenHandler(jv *auth.JWTVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			User string `json:"user"`
			Name string `json:"name"`
		}
		if err := c.BindJSON(&req); err != nil || req.User == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})
			return
		}
		token, err := jv.Issue(domain.UserID(req.User), req.Name, time.Hour)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token})
	}
}
