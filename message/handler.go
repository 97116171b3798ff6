package message

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/ssecast/errors"
	"github.com/kbukum/ssecast/server"
	"github.com/kbukum/ssecast/sse"
)

// Handler serves the publish, subscribe and stats routes.
type Handler struct {
	svc      *Service
	hub      *sse.Hub
	cfg      sse.Config
	maxBytes int64
}

// NewHandler creates the HTTP handlers.
func NewHandler(svc *Service, hub *sse.Hub, cfg sse.Config) *Handler {
	cfg.ApplyDefaults()
	return &Handler{svc: svc, hub: hub, cfg: cfg, maxBytes: cfg.MaxMessageBytes()}
}

// Subscribe holds the request open as an event stream.
func (h *Handler) Subscribe(c *gin.Context) {
	sse.ServeSSE(h.hub, c.Writer, c.Request)
}

// Send publishes the raw request body. Any content type is accepted.
func (h *Handler) Send(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, h.maxBytes+1))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			server.RespondWithError(c, apperrors.InvalidInput("body", "message exceeds the size limit").
				WithDetail("limit_bytes", h.maxBytes))
			return
		}
		server.RespondWithError(c, apperrors.InvalidInput("body", "could not read request body").WithCause(err))
		return
	}
	if int64(len(body)) > h.maxBytes {
		server.RespondWithError(c, apperrors.InvalidInput("body", "message exceeds the size limit").
			WithDetail("limit_bytes", h.maxBytes))
		return
	}

	if _, err := h.svc.Send(c.Request.Context(), string(body)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			server.RespondWithError(c, apperrors.Timeout("relay publish").WithCause(err))
			return
		}
		server.RespondWithError(c, apperrors.ServiceUnavailable("relay").WithCause(err))
		return
	}
	server.RespondNoContent(c)
}

// Stats reports the number of open streams on this instance.
func (h *Handler) Stats(c *gin.Context) {
	server.RespondOK(c, gin.H{"subscribers": h.svc.Subscribers()})
}
