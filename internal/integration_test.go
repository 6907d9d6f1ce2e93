package internal

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pendo-io/kegtronbot/config"
	"github.com/pendo-io/kegtronbot/internal/api"
	"github.com/pendo-io/kegtronbot/internal/bot"
	"github.com/pendo-io/kegtronbot/internal/kegtron"
	"github.com/pendo-io/kegtronbot/internal/registry"
	"github.com/pendo-io/kegtronbot/internal/slack"
)

// TestSlashCommandLifecycle walks the whole command path: an inbound slash
// command is acknowledged, telemetry is fetched upstream, and the rendered
// status lands on the response URL in channel.
func TestSlashCommandLifecycle(t *testing.T) {
	// --- Test Setup ---

	// 1. Mock upstream telemetry for one device with one keg.
	telemetry := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "token-1", r.URL.Query().Get("access_token"))
		w.Write([]byte(`{"shadow": {"state": {"reported": {
			"config": {
				"port0": {
					"maker": "Oskar Blue's",
					"style": "American Pale Ale",
					"userName": "Dale's Pale Ale",
					"userDesc": "Beer",
					"drinkSize": 355
				}
			},
			"config_readonly": {
				"port0": {"volStart": 19550, "volDisp": 13724}
			}
		}}}}`))
	}))
	defer telemetry.Close()

	// 2. Mock response URL capturing what the bot posts back.
	delivered := make(chan map[string]any, 1)
	responseSink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var body map[string]any
		require.NoError(t, json.Unmarshal(raw, &body))
		delivered <- body
	}))
	defer responseSink.Close()

	// 3. Wire the real stack over static config.
	cfg := &config.Config{}
	cfg.Kegtron.APIURL = telemetry.URL
	cfg.Kegtron.Devices = []config.DeviceConfig{{Name: "office", Tokens: []string{"token-1"}}}
	cfg.Slack.Workspaces = []config.WorkspaceConfig{{Name: "acme", BotToken: "xoxb-1", TeamID: "T1"}}
	config.Normalize(cfg)

	logger := zerolog.Nop()
	reg := registry.New(cfg, kegtron.NewClient(cfg.Kegtron.APIURL, logger), nil, logger)
	dispatcher := bot.NewDispatcher(reg, reg, slack.NewClient("", logger), cfg.Kegtron.DefaultDevice, logger)
	spawner := bot.NewSpawner(logger)
	handler := api.NewHandler(dispatcher, reg, spawner, logger)
	server := httptest.NewServer(api.NewRouter(handler, cfg.Server, logger))
	defer server.Close()

	// --- Execution ---

	form := url.Values{
		"team_id":      {"T1"},
		"user_id":      {"U123"},
		"command":      {"/kegtron"},
		"response_url": {responseSink.URL},
	}
	resp, err := http.Post(
		server.URL+"/slackMessage",
		"application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()),
	)
	require.NoError(t, err)
	resp.Body.Close()

	// --- Verification ---

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	spawner.Wait()
	body := <-delivered

	assert.Equal(t, "in_channel", body["response_type"])

	var buf strings.Builder
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	require.NoError(t, enc.Encode(body["blocks"]))
	rendered := buf.String()
	assert.Contains(t, rendered, "Check Out What's On Tap!")
	assert.Contains(t, rendered, "`16` drinks remaining")
	assert.Contains(t, rendered, "Shared by <@U123>")
	assert.Contains(t, rendered, "office|0")
}

// TestUnknownWorkspaceRejectedBeforeWork verifies the front door rejects a
// foreign workspace without touching upstream telemetry.
func TestUnknownWorkspaceRejectedBeforeWork(t *testing.T) {
	telemetry := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("telemetry must not be fetched for rejected workspaces")
	}))
	defer telemetry.Close()

	cfg := &config.Config{}
	cfg.Kegtron.APIURL = telemetry.URL
	cfg.Kegtron.Devices = []config.DeviceConfig{{Name: "office", Tokens: []string{"token-1"}}}
	cfg.Slack.Workspaces = []config.WorkspaceConfig{{Name: "acme", BotToken: "xoxb-1", TeamID: "T1"}}
	config.Normalize(cfg)

	logger := zerolog.Nop()
	reg := registry.New(cfg, kegtron.NewClient(cfg.Kegtron.APIURL, logger), nil, logger)
	dispatcher := bot.NewDispatcher(reg, reg, slack.NewClient("", logger), cfg.Kegtron.DefaultDevice, logger)
	spawner := bot.NewSpawner(logger)
	handler := api.NewHandler(dispatcher, reg, spawner, logger)
	server := httptest.NewServer(api.NewRouter(handler, cfg.Server, logger))
	defer server.Close()

	form := url.Values{"team_id": {"T999"}}
	resp, err := http.Post(
		server.URL+"/slackMessage",
		"application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()),
	)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "Workspace not recognized.", string(body))
}
