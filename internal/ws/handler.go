package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/gops-apitest/internal/hub"
	"github.com/DoyleJ11/gops-apitest/internal/runner"
	"github.com/DoyleJ11/gops-apitest/internal/types"
)

func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		rn, err := h.Lookup(r.Context(), code)
		if err != nil {
			http.Error(w, "service unavailable", http.StatusServiceUnavailable)
			return
		}
		if rn == nil {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}

		// same-origin only: the console page is served by this server
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			log.Debug("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan runner.Snapshot, 8)
		subID := uuid.NewString()

		select {
		case rn.Inbox() <- runner.Subscribe{ID: subID, Outbox: out}:
		case <-rn.Done():
			conn.Close(websocket.StatusGoingAway, "session closed")
			return
		}
		defer func() {
			select {
			case rn.Inbox() <- runner.Unsubscribe{ID: subID}:
			case <-rn.Done():
			}
		}()

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			defer writeCancel()
			for {
				select {
				case <-writeCtx.Done():
					return
				case snap, ok := <-out:
					if !ok {
						// dropped as slow, or the session was unmounted
						conn.Close(websocket.StatusGoingAway, "session closed")
						return
					}
					payload, _ := json.Marshal(types.SnapshotMessage(snap))
					ctx, cancel := context.WithTimeout(writeCtx, 3*time.Second)
					err := conn.Write(ctx, websocket.MessageText, payload)
					cancel()
					if err != nil {
						return
					}
				}
			}
		}()

		// Reader loop
		for {
			_, data, err := conn.Read(writeCtx)
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					log.Debug("websocket read ended", zap.String("session", code), zap.Error(err))
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				writeError(r.Context(), conn, "bad json")
				continue
			}

			endpoint, ok := types.ToEndpoint(cm)
			if !ok {
				writeError(r.Context(), conn, "unknown type")
				continue
			}

			if seq := rn.Fetch(endpoint); seq == 0 {
				return
			}
		}
	}
}

func writeError(ctx context.Context, conn *websocket.Conn, msg string) {
	payload, _ := json.Marshal(types.ErrorMessage(msg))
	_ = conn.Write(ctx, websocket.MessageText, payload)
}
