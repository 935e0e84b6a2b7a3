package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/cadence/pkg/channel"
	"github.com/cuemby/cadence/pkg/types"
)

type staticSession struct {
	sess *types.Session
}

func (s staticSession) Snapshot() *types.Session { return s.sess.Clone() }

type staticChannels map[string]channel.State

func (s staticChannels) States() map[string]channel.State { return s }

func allOpen() staticChannels {
	return staticChannels{
		channel.SessionChannel:         channel.StateOpen,
		channel.PlaylistChannel:        channel.StateOpen,
		channel.RecommendationsChannel: channel.StateOpen,
	}
}

func running() *types.Session {
	return &types.Session{ID: "s1", Name: "Friday", IsRunning: true, Playlist: types.EmptyPlaylist()}
}

func TestHealthHandler(t *testing.T) {
	s := NewStatusServer(staticSession{}, nil, "0.3.0")

	tests := []struct {
		name           string
		method         string
		expectedStatus int
	}{
		{name: "GET request succeeds", method: http.MethodGet, expectedStatus: http.StatusOK},
		{name: "POST request fails", method: http.MethodPost, expectedStatus: http.StatusMethodNotAllowed},
		{name: "DELETE request fails", method: http.MethodDelete, expectedStatus: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/health", nil)
			w := httptest.NewRecorder()

			s.Handler().ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var response HealthResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
				assert.Equal(t, "healthy", response.Status)
				assert.Equal(t, "0.3.0", response.Version)
				assert.NotZero(t, response.Timestamp)
				assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			}
		})
	}
}

func TestReadyHandler(t *testing.T) {
	ended := running()
	ended.IsRunning = false

	waiting := allOpen()
	waiting[channel.PlaylistChannel] = channel.StateWaiting

	tests := []struct {
		name           string
		session        *types.Session
		channels       ChannelView
		expectedStatus int
		expectedChecks map[string]string
	}{
		{
			name:           "no session",
			session:        nil,
			channels:       allOpen(),
			expectedStatus: http.StatusServiceUnavailable,
		},
		{
			name:           "ended session",
			session:        ended,
			channels:       allOpen(),
			expectedStatus: http.StatusServiceUnavailable,
		},
		{
			name:           "channel reconnecting",
			session:        running(),
			channels:       waiting,
			expectedStatus: http.StatusServiceUnavailable,
			expectedChecks: map[string]string{"channel.playlist": "waiting"},
		},
		{
			name:           "running with all channels open",
			session:        running(),
			channels:       allOpen(),
			expectedStatus: http.StatusOK,
			expectedChecks: map[string]string{
				"session":                 "running",
				"channel.session":         "open",
				"channel.playlist":        "open",
				"channel.recommendations": "open",
			},
		},
		{
			name:           "running without channel view",
			session:        running(),
			channels:       nil,
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStatusServer(staticSession{sess: tt.session}, tt.channels, "test")

			req := httptest.NewRequest(http.MethodGet, "/ready", nil)
			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var response ReadyResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, "ready", response.Status)
				assert.Empty(t, response.Message)
			} else {
				assert.Equal(t, "not ready", response.Status)
				assert.NotEmpty(t, response.Message)
			}
			for k, v := range tt.expectedChecks {
				assert.Equal(t, v, response.Checks[k], k)
			}
		})
	}
}

func TestSessionHandler(t *testing.T) {
	s := NewStatusServer(staticSession{sess: running()}, nil, "test")

	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response SessionResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.True(t, response.IsRunning)
	assert.Equal(t, "Friday", response.Session.Name)

	empty := NewStatusServer(staticSession{}, nil, "test")
	w = httptest.NewRecorder()
	empty.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/session", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/session", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := NewStatusServer(staticSession{}, nil, "test")

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cadence_session_active")
}

func TestLiveEndpoint(t *testing.T) {
	s := NewStatusServer(staticSession{}, nil, "test")

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/live", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alive")
}

func TestShutdownBeforeStart(t *testing.T) {
	s := NewStatusServer(staticSession{}, nil, "test")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Shutdown(ctx))
}
