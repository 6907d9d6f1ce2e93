package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pendo-io/kegtronbot/internal/bot"
	"github.com/pendo-io/kegtronbot/internal/slack"
)

func noopDispatcher() *mockDispatcher {
	return &mockDispatcher{
		AuthorizeFunc:         func(teamID string) (string, bool) { return "xoxb-1", true },
		HandleCommandFunc:     func(ctx context.Context, cmd slack.Command) {},
		HandleInteractionFunc: func(ctx context.Context, inter *slack.Interaction) {},
	}
}

func TestStatus(t *testing.T) {
	server := newTestServer(noopDispatcher(), bot.NewSpawner(zerolog.Nop()))
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "office")
	assert.Contains(t, string(body), "Dale's Pale Ale")
	assert.Contains(t, string(body), "drinks remaining")
}

func TestDevices(t *testing.T) {
	server := newTestServer(noopDispatcher(), bot.NewSpawner(zerolog.Nop()))
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/devices")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out []struct {
		Name string `json:"name"`
		Kegs int    `json:"kegs"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out, 1)
	assert.Equal(t, "office", out[0].Name)
	assert.Equal(t, 1, out[0].Kegs)
}
