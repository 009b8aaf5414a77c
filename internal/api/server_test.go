// SPDX-License-Identifier: MIT

package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/videowall/internal/api"
	"github.com/ManuGH/videowall/internal/command"
	"github.com/ManuGH/videowall/internal/config"
	"github.com/ManuGH/videowall/internal/controller"
	"github.com/ManuGH/videowall/internal/player"
	"github.com/ManuGH/videowall/internal/testutil"
)

func newTestServer(t *testing.T) (*api.Server, *controller.Controller) {
	t.Helper()

	dir := t.TempDir()
	media := filepath.Join(dir, "current.mp4")
	require.NoError(t, os.WriteFile(media, []byte("media"), 0o644))

	cfg := config.Device{
		MediaPath:      media,
		StagingDir:     dir,
		MulticastGroup: "239.255.42.1",
		AudioOutput:    config.AudioHDMI,
	}
	mgr := player.NewManager(&testutil.FakeEngine{}, media, cfg.AudioOutput,
		player.WithPauseGrace(0),
		player.WithQuitTimeout(50*time.Millisecond))
	ctrl := controller.New(cfg, mgr)
	return api.NewServer(":0", ctrl, media, "test"), ctrl
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestStatusReflectsPlayback(t *testing.T) {
	srv, ctrl := newTestServer(t)

	get := func() api.StatusResponse {
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var resp api.StatusResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		return resp
	}

	assert.Equal(t, "idle", get().Status)
	assert.False(t, get().TransferActive)

	ctrl.Dispatch(command.Load)
	assert.Equal(t, "loaded", get().Status)

	ctrl.Dispatch(command.Go)
	assert.Equal(t, "playing", get().Status)

	ctrl.Dispatch(command.Stop)
	assert.Equal(t, "idle", get().Status)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "videowall_")
}
