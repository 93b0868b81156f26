package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"dronesim/pkg/logging"
)

const writeWait = 5 * time.Second

// StreamHandler upgrades to a websocket and pushes the fleet state every
// interval until the client goes away.
type StreamHandler struct {
	src      FleetSource
	interval time.Duration
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewStreamHandler(src FleetSource, interval time.Duration, logger *slog.Logger) *StreamHandler {
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	return &StreamHandler{
		src:      src,
		interval: interval,
		upgrader: websocket.Upgrader{EnableCompression: false},
		logger:   logging.OrDefault(logger),
	}
}

func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.logger.Warn("Stream upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	h.logger.Debug("Stream client connected", "remote", r.RemoteAddr)

	// The client never sends anything we care about; reading only detects the close.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			return
		}
		if err := conn.WriteJSON(snapshotOf(h.src)); err != nil {
			h.logger.Debug("Stream client dropped", "remote", r.RemoteAddr, "error", err)
			return
		}
		select {
		case <-ticker.C:
		case <-gone:
			h.logger.Debug("Stream client disconnected", "remote", r.RemoteAddr)
			return
		case <-r.Context().Done():
			return
		}
	}
}
