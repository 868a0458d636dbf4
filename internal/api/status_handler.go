package api

import (
	"net/http"
	"strconv"

	"github.com/discussions-migrator/internal/models"
	"github.com/discussions-migrator/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// StatusHandler serves the progress recorded in the checkpoint
type StatusHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewStatusHandler creates a new StatusHandler
func NewStatusHandler(services *service.Services, log zerolog.Logger) *StatusHandler {
	return &StatusHandler{
		services: services,
		log:      log.With().Str("handler", "status").Logger(),
	}
}

// GetStatus handles GET /v1/status
func (h *StatusHandler) GetStatus(c *gin.Context) {
	progress, err := h.services.Status.Summary(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load checkpoint")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "checkpoint unavailable"})
		return
	}
	c.JSON(http.StatusOK, progress)
}

// ListPosts handles GET /v1/posts?pending=true
// With pending set, only posts that still have comments to create are listed.
func (h *StatusHandler) ListPosts(c *gin.Context) {
	pending := false
	if raw := c.Query("pending"); raw != "" {
		var err error
		if pending, err = strconv.ParseBool(raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "pending must be a boolean"})
			return
		}
	}

	posts, err := h.services.Status.Posts(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load checkpoint")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "checkpoint unavailable"})
		return
	}

	if pending {
		filtered := make([]models.PostProgress, 0, len(posts))
		for _, p := range posts {
			if p.DiscussionNumber == 0 || p.CommentsAssociated < p.Comments {
				filtered = append(filtered, p)
			}
		}
		posts = filtered
	}

	c.JSON(http.StatusOK, gin.H{
		"posts": posts,
		"total": len(posts),
	})
}
