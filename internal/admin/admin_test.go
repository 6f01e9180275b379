package admin_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jetsetilly/crowdcade/internal/admin"
	"github.com/jetsetilly/crowdcade/internal/arbiter"
	"github.com/jetsetilly/crowdcade/internal/rng"
	"github.com/jetsetilly/crowdcade/internal/supervisor"
)

type fakeSupervisor struct {
	fps      float64
	uptime   time.Duration
	paused   bool
	commands []supervisor.Command
}

func (f *fakeSupervisor) SubmitCommand(cmd supervisor.Command) {
	f.commands = append(f.commands, cmd)
	switch cmd.Kind {
	case supervisor.CmdPause:
		f.paused = true
	case supervisor.CmdResume:
		f.paused = false
	}
	if cmd.Err != nil {
		cmd.Err <- nil
	}
}

func (f *fakeSupervisor) FPS() float64          { return f.fps }
func (f *fakeSupervisor) Uptime() time.Duration { return f.uptime }
func (f *fakeSupervisor) Paused() bool          { return f.paused }

func newTestServer(t *testing.T) (*httptest.Server, *fakeSupervisor, *arbiter.Arbiter) {
	t.Helper()
	arb := arbiter.New(arbiter.DefaultConfig(), rng.NewZeroSeed(), arbiter.Anarchy, nil)
	sup := &fakeSupervisor{fps: 59.9, uptime: 3 * time.Minute}
	srv := admin.New(arb, sup, "secret-token", func() int64 { return 0 })
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, sup, arb
}

func doRequest(t *testing.T, ts *httptest.Server, method, path, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func TestStatusRequiresBearerToken(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp := doRequest(t, ts, http.MethodGet, "/status", "", "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestStatusRejectsWrongToken(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp := doRequest(t, ts, http.MethodGet, "/status", "wrong", "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestStatusReportsArbiterAndSupervisorState(t *testing.T) {
	ts, sup, _ := newTestServer(t)

	resp := doRequest(t, ts, http.MethodGet, "/status", "secret-token", "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Mode       string  `json:"mode"`
		FPS        float64 `json:"fps"`
		UptimeSecs float64 `json:"uptime_s"`
		Paused     bool    `json:"paused"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "anarchy", body.Mode)
	assert.Equal(t, sup.fps, body.FPS)
	assert.Equal(t, sup.uptime.Seconds(), body.UptimeSecs)
	assert.False(t, body.Paused)
}

func TestPostModeSwitchesArbiter(t *testing.T) {
	ts, _, arb := newTestServer(t)

	resp := doRequest(t, ts, http.MethodPost, "/mode", "secret-token", `{"mode":"democracy"}`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, arbiter.Democracy, arb.Mode())
}

func TestPostModeRejectsUnknownMode(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp := doRequest(t, ts, http.MethodPost, "/mode", "secret-token", `{"mode":"chaos"}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPostSaveAcknowledgesImmediately(t *testing.T) {
	ts, sup, _ := newTestServer(t)

	resp := doRequest(t, ts, http.MethodPost, "/save", "secret-token", "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, sup.commands, 1)
	assert.Equal(t, supervisor.CmdSaveNow, sup.commands[0].Kind)
}

func TestPostPauseTogglesAndResumes(t *testing.T) {
	ts, sup, _ := newTestServer(t)

	resp := doRequest(t, ts, http.MethodPost, "/pause", "secret-token", "")
	resp.Body.Close()
	assert.True(t, sup.paused)

	resp = doRequest(t, ts, http.MethodPost, "/pause", "secret-token", "")
	resp.Body.Close()
	assert.False(t, sup.paused)
}
