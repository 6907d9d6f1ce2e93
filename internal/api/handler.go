package api

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/pendo-io/kegtronbot/internal/bot"
	"github.com/pendo-io/kegtronbot/internal/kegtron"
	"github.com/pendo-io/kegtronbot/internal/slack"
)

// Dispatcher is the bot surface the HTTP handlers hand work to.
type Dispatcher interface {
	Authorize(teamID string) (string, bool)
	HandleCommand(ctx context.Context, cmd slack.Command)
	HandleInteraction(ctx context.Context, inter *slack.Interaction)
}

// DeviceProvider resolves the current device snapshot.
type DeviceProvider interface {
	Devices() *kegtron.Group
}

// Handler bundles the HTTP endpoint handlers and their dependencies.
type Handler struct {
	dispatcher Dispatcher
	devices    DeviceProvider
	spawner    *bot.Spawner
	logger     zerolog.Logger
}

// NewHandler creates a Handler with the given dependencies.
func NewHandler(dispatcher Dispatcher, devices DeviceProvider, spawner *bot.Spawner, logger zerolog.Logger) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		devices:    devices,
		spawner:    spawner,
		logger:     logger.With().Str("component", "api").Logger(),
	}
}
