package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pendo-io/kegtronbot/internal/slack"
)

// SlackMessage serves inbound slash commands. Unknown workspaces are rejected
// with 403 before the delivery is acknowledged; recognized ones get an
// immediate 200 and the real work runs detached. The detached task uses a
// fresh context because the request context dies with the ack.
func (h *Handler) SlackMessage(c *gin.Context) {
	cmd := slack.ParseCommand(c.Request)
	if _, ok := h.dispatcher.Authorize(cmd.TeamID); !ok {
		h.logger.Warn().Str("team_id", cmd.TeamID).Msg("rejecting command from unrecognized workspace")
		c.String(http.StatusForbidden, "Workspace not recognized.")
		return
	}

	c.Status(http.StatusOK)
	h.spawner.Go("command", func() {
		h.dispatcher.HandleCommand(context.Background(), cmd)
	})
}

// SlackInteractive serves interactive deliveries: block actions and view
// submissions. A malformed payload is logged and acknowledged so Slack does
// not retry it.
func (h *Handler) SlackInteractive(c *gin.Context) {
	inter, err := slack.ParseInteraction(c.Request.FormValue("payload"))
	if err != nil {
		h.logger.Error().Err(err).Msg("dropping malformed interaction payload")
		c.Status(http.StatusOK)
		return
	}

	if _, ok := h.dispatcher.Authorize(inter.Team.ID); !ok {
		h.logger.Warn().Str("team_id", inter.Team.ID).Msg("rejecting interaction from unrecognized workspace")
		c.String(http.StatusForbidden, "Workspace not recognized.")
		return
	}

	c.Status(http.StatusOK)
	h.spawner.Go("interaction", func() {
		h.dispatcher.HandleInteraction(context.Background(), inter)
	})
}
