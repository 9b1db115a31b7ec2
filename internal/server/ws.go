package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"

	"github.com/voxmed/voxmed/internal/observe"
	"github.com/voxmed/voxmed/internal/segment"
)

// wsError is sent to the client when an event could not be processed. The
// connection stays open; dictation continues with the next event.
type wsError struct {
	Error string `json:"error"`
}

// handleDictation upgrades the connection and streams recogniser events in,
// document updates out. One frame in, one frame out. The session must exist
// before the socket is opened.
func (s *Server) handleDictation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess, ok := s.app.Session(id)
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("session not found"))
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "session", id, "err", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "handler exited")

	ctx := r.Context()
	log := observe.Logger(ctx).With("session", id)
	log.Info("dictation socket opened")

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || ctx.Err() != nil {
				log.Info("dictation socket closed")
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			log.Warn("dictation socket read failed", "err", err)
			return
		}

		var ev segment.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			if werr := writeWS(ctx, conn, wsError{Error: "invalid event: " + err.Error()}); werr != nil {
				return
			}
			continue
		}

		upd, err := sess.HandleEvent(ctx, ev)
		if err != nil {
			if werr := writeWS(ctx, conn, wsError{Error: err.Error()}); werr != nil {
				return
			}
			continue
		}

		if err := writeWS(ctx, conn, upd); err != nil {
			log.Warn("dictation socket write failed", "err", err)
			return
		}
	}
}

// writeWS marshals v and writes it as a text frame.
func writeWS(ctx context.Context, conn *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}
