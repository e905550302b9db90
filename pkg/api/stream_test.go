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
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monbridge/monbridge/pkg/logger"
	"github.com/monbridge/monbridge/pkg/models"
)

func streamURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/events/ws"
}

func TestEventStreamDeliversEvents(t *testing.T) {
	t.Parallel()

	hub := NewEventHub(logger.NewTestLogger())
	s := NewServer(models.CORSConfig{}, logger.NewTestLogger(), WithEventHub(hub))

	ts := httptest.NewServer(s)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial(streamURL(ts), nil)
	require.NoError(t, err)

	defer func() { _ = conn.Close() }()

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 },
		2*time.Second, 10*time.Millisecond)

	hub.LogCreationEvent(context.Background(), &models.HostEventData{
		Host:   "web-01",
		Action: models.HostActionCreated,
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var msg StreamMessage

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "data", msg.Type)
	assert.Equal(t, "host.created", msg.Event)

	data, ok := msg.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "web-01", data["host"])
}

func TestEventStreamUnsubscribesOnDisconnect(t *testing.T) {
	t.Parallel()

	hub := NewEventHub(logger.NewTestLogger())
	s := NewServer(models.CORSConfig{}, logger.NewTestLogger(), WithEventHub(hub))

	ts := httptest.NewServer(s)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial(streamURL(ts), nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 },
		2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool { return hub.Subscribers() == 0 },
		2*time.Second, 10*time.Millisecond)
}

func TestEventStreamRejectsDisallowedOrigin(t *testing.T) {
	t.Parallel()

	hub := NewEventHub(logger.NewTestLogger())
	s := NewServer(models.CORSConfig{AllowedOrigins: []string{"http://app.internal"}},
		logger.NewTestLogger(), WithEventHub(hub))

	ts := httptest.NewServer(s)
	defer ts.Close()

	header := http.Header{"Origin": []string{"http://evil.example"}}

	conn, resp, err := websocket.DefaultDialer.Dial(streamURL(ts), header)
	require.Error(t, err)

	if conn != nil {
		_ = conn.Close()
	}

	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestEventStreamWithoutHub(t *testing.T) {
	t.Parallel()

	s := NewServer(models.CORSConfig{}, logger.NewTestLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events/ws", http.NoBody)
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
