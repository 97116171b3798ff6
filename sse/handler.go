package sse

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	ginsse "github.com/gin-contrib/sse"
	"github.com/google/uuid"

	apperrors "github.com/kbukum/ssecast/errors"
	"github.com/kbukum/ssecast/logger"
)

var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// ServeSSE holds the request open as an event stream until the client goes
// away, the client is evicted, or the hub stops. The client is registered
// before the connected frame is written and unregistered on return.
func ServeSSE(hub *Hub, w http.ResponseWriter, r *http.Request, opts ...ClientOption) {
	if _, ok := w.(http.Flusher); !ok {
		hub.log.Error("Streaming not supported", logger.Fields(logger.FieldRemoteAddr, r.RemoteAddr))
		writeError(w, apperrors.StreamingUnsupported())
		return
	}

	// Long-lived streams must outlive the server's WriteTimeout.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		hub.log.Warn("Could not disable write deadline", logger.Fields(logger.FieldError, err.Error()))
	}

	base := []ClientOption{
		WithBufferSize(hub.cfg.ClientBufferSize),
		WithRemoteAddr(r.RemoteAddr),
		WithUserAgent(r.UserAgent()),
	}
	client := NewClient(uuid.NewString(), append(base, opts...)...)
	if err := hub.Register(client); err != nil {
		hub.log.Warn("Client rejected", logger.Fields(logger.FieldError, err.Error()))
		writeError(w, apperrors.ServiceUnavailable("sse"))
		return
	}
	defer hub.Unregister(client)

	log := hub.log.WithFields(logger.Fields(logger.FieldClientID, client.id))

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	connected := ginsse.Event{Event: EventTypeConnected, Data: ConnectedEvent{ClientID: client.id}}
	if err := writeEvent(w, rc, connected); err != nil {
		log.Debug("Connected frame failed", logger.Fields(logger.FieldError, err.Error()))
		return
	}
	log.Debug("Client connected", logger.Fields(logger.FieldRemoteAddr, r.RemoteAddr))

	keepAlive := time.NewTicker(hub.cfg.KeepAliveInterval)
	defer keepAlive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			log.Debug("Client disconnected", logger.Fields("reason", ctx.Err().Error()))
			return

		case <-client.Done():
			log.Debug("Client closed by hub")
			return

		case data := <-client.Events():
			if err := writeEvent(w, rc, ginsse.Event{Data: lineBreaks.Replace(string(data))}); err != nil {
				log.Debug("Write failed, dropping stream", logger.Fields(logger.FieldError, err.Error()))
				return
			}

		case <-keepAlive.C:
			if err := writeComment(w, rc, EventTypeKeepAlive); err != nil {
				log.Debug("Keep-alive failed, dropping stream", logger.Fields(logger.FieldError, err.Error()))
				return
			}
		}
	}
}

// writeEvent encodes ev into a single write so a broken connection surfaces
// as an error instead of a partially written frame.
func writeEvent(w http.ResponseWriter, rc *http.ResponseController, ev ginsse.Event) error {
	var buf bytes.Buffer
	if err := ginsse.Encode(&buf, ev); err != nil {
		return err
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return err
	}
	return rc.Flush()
}

func writeComment(w http.ResponseWriter, rc *http.ResponseController, text string) error {
	if _, err := w.Write([]byte(": " + text + "\n\n")); err != nil {
		return err
	}
	return rc.Flush()
}

func writeError(w http.ResponseWriter, appErr *apperrors.AppError) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(appErr.ToResponse())
}
