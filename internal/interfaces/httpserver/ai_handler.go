package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"coachchat/ai-bridge/internal/domain/bridge"
)

// BridgeService is the entry-point contract the AI handler depends on.
type BridgeService interface {
	HandleNewMessage(ctx context.Context, in bridge.InboundMessage) error
}

// AIHandler exposes the webhook that triggers reply generation.
type AIHandler struct {
	service BridgeService
	log     zerolog.Logger
}

// NewAIHandler wires the webhook handler.
func NewAIHandler(service BridgeService, log zerolog.Logger) *AIHandler {
	return &AIHandler{
		service: service,
		log:     log.With().Str("component", "ai-handler").Logger(),
	}
}

// NewMessage handles POST /api/ai/new-message. It answers 202 once the
// reply session is launched; generation failures are reported on the
// channel, not here.
func (h *AIHandler) NewMessage(c *gin.Context) {
	var req NewMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	in := bridge.InboundMessage{
		ChannelCID: req.CID,
		Text:       req.Text(),
		AuthorID:   req.AuthorID(),
	}

	if err := h.service.HandleNewMessage(c.Request.Context(), in); err != nil {
		if errors.Is(err, bridge.ErrMissingChannel) ||
			errors.Is(err, bridge.ErrMissingText) ||
			errors.Is(err, bridge.ErrMissingAuthor) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.log.Error().Err(err).Msg("new-message handling failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "processing started"})
}
