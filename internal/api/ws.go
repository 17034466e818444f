package api

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"
)

const pingInterval = 30 * time.Second

// Updates streams the caller's events over a WebSocket until either side
// goes away.
func (h *Handler) Updates(w http.ResponseWriter, r *http.Request) {
	userID := principal(r).UserID

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Warn("failed to accept websocket", zap.String("uid", userID), zap.Error(err))
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "stream ended"); closeErr != nil {
			h.logger.Debug("failed to close websocket", zap.String("uid", userID), zap.Error(closeErr))
		}
	}()

	updates, cancel := h.hub.Subscribe(userID)
	defer cancel()

	// clients only listen; CloseRead handles their close frame
	ctx := ws.CloseRead(r.Context())
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, done := context.WithTimeout(ctx, 10*time.Second)
			err := ws.Ping(pingCtx)
			done()
			if err != nil {
				return
			}
		case u, ok := <-updates:
			if !ok {
				return
			}
			writeCtx, done := context.WithTimeout(ctx, 10*time.Second)
			err := wsjson.Write(writeCtx, ws, u)
			done()
			if err != nil {
				h.logger.Debug("websocket write failed", zap.String("uid", userID), zap.Error(err))
				return
			}
		}
	}
}
