package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const defaultKeepAlive = 15 * time.Second

// EventsHandler streams the session's cart-changed signal as server-sent
// events.
type EventsHandler struct {
	views     Views
	keepAlive time.Duration
	logger    zerolog.Logger
}

// NewEventsHandler creates a new events handler. A keepAlive of zero uses
// the default comment interval.
func NewEventsHandler(views Views, keepAlive time.Duration, logger zerolog.Logger) *EventsHandler {
	if keepAlive <= 0 {
		keepAlive = defaultKeepAlive
	}
	return &EventsHandler{
		views:     views,
		keepAlive: keepAlive,
		logger:    logger.With().Str("handler", "events").Logger(),
	}
}

// Stream handles GET /api/cart/events requests. Each broadcast on the
// session's bus becomes one "cart-changed" event. Signals that arrive while
// one is still pending are coalesced, so a slow client never blocks a cart
// mutation.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	view := viewFor(h.views, r)
	rc := http.NewResponseController(w)

	// Streams outlive the server's write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		h.logger.Error().Err(err).Msg("response does not support streaming")
		return
	}

	changes := make(chan struct{}, 1)
	unsubscribe := view.Events().Subscribe(func(context.Context) {
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	h.logger.Debug().Msg("event stream opened")
	for {
		var err error
		select {
		case <-r.Context().Done():
			h.logger.Debug().Msg("event stream closed")
			return
		case <-changes:
			_, err = fmt.Fprint(w, "event: cart-changed\ndata: changed\n\n")
		case <-ticker.C:
			_, err = fmt.Fprint(w, ": ping\n\n")
		}
		if err == nil {
			err = rc.Flush()
		}
		if err != nil {
			h.logger.Debug().Err(err).Msg("event stream write failed")
			return
		}
	}
}
