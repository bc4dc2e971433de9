package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/okian/podium/internal/adapters/realtime"
	"github.com/okian/podium/pkg/logger"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// the feed is public and read-only
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleLive streams leaderboard snapshots for one event over a websocket.
// The first frame is the current leaderboard; later frames carry strictly
// increasing versions.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	sess, err := s.deps.Subscribe(r.Context(), eventID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	defer s.deps.Unsubscribe(context.WithoutCancel(r.Context()), sess.ID)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		s.logger.Warn(r.Context(), "websocket upgrade failed", logger.String("event_id", eventID), logger.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go readPump(conn, cancel)

	log := s.logger.With(logger.String("event_id", eventID), logger.String("session_id", sess.ID))
	log.Debug(ctx, "live subscriber connected")
	if err := writePump(ctx, conn, sess); err != nil {
		log.Debug(ctx, "live subscriber disconnected", logger.Error(err))
	}
}

// readPump drains client frames so pongs and close messages are processed.
func readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writePump(ctx context.Context, conn *websocket.Conn, sess *realtime.Session) error {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	snaps := make(chan error, 1)
	go func() {
		for {
			snap, err := sess.Next(ctx)
			if err != nil {
				snaps <- err
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(snap); err != nil {
				snaps <- err
				return
			}
		}
	}()

	for {
		select {
		case err := <-snaps:
			if errors.Is(err, realtime.ErrSessionClosed) {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(writeWait))
			}
			return err
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return err
			}
		}
	}
}
