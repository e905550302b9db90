/*
 * Copyright 2025 The Monbridge Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsReadBuffer  = 1024
	wsWriteBuffer = 1024

	// pongWait is how long a client may stay silent; every pong resets
	// it. pingPeriod must be shorter so a ping is in flight before the
	// deadline hits.
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	writeWait  = 10 * time.Second
)

// handleEventStream upgrades the request and relays hub events to the
// client until either side goes away.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		writeError(w, "Event stream not configured", http.StatusInternalServerError)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  wsReadBuffer,
		WriteBufferSize: wsWriteBuffer,
		CheckOrigin:     s.checkWebSocketOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("remote_addr", r.RemoteAddr).
			Str("origin", r.Header.Get("Origin")).
			Msg("Failed to upgrade to WebSocket")

		return
	}

	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			s.logger.Debug().Err(closeErr).Msg("Closing WebSocket failed")
		}
	}()

	id, events := s.hub.Subscribe()
	defer s.hub.Unsubscribe(id)

	s.logger.Info().
		Str("remote_addr", r.RemoteAddr).
		Uint64("subscriber", id).
		Msg("Event stream client connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go s.watchClient(ctx, conn, cancel)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug().
				Uint64("subscriber", id).
				Msg("Event stream client disconnected")

			return

		case <-ticker.C:
			deadline := time.Now().Add(writeWait)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				s.logger.Debug().Err(err).
					Uint64("subscriber", id).
					Msg("WebSocket ping failed")

				return
			}

		case msg, ok := <-events:
			if !ok {
				return
			}

			if err := conn.WriteJSON(msg); err != nil {
				s.logger.Debug().Err(err).
					Uint64("subscriber", id).
					Msg("WebSocket write failed")

				return
			}
		}
	}
}

// watchClient reads from the connection for pong replies and disconnect
// detection; anything else the client sends is discarded.
func (s *Server) watchClient(ctx context.Context, conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if ctx.Err() != nil {
			return
		}

		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug().Err(err).Msg("WebSocket closed unexpectedly")
			}

			return
		}
	}
}

// checkWebSocketOrigin applies the CORS allow list to the upgrade
// request. No Origin header means a non-browser client; those pass.
func (s *Server) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if len(s.cors.AllowedOrigins) == 0 {
		return true
	}

	for _, allowed := range s.cors.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	s.logger.Warn().
		Str("origin", origin).
		Msg("WebSocket origin not allowed")

	return false
}
