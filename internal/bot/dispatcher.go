package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pendo-io/kegtronbot/internal/kegtron"
	"github.com/pendo-io/kegtronbot/internal/slack"
)

// AuthProvider resolves the current workspace credential snapshot.
type AuthProvider interface {
	Auths() *slack.AuthGroup
}

// DeviceProvider resolves the current device snapshot.
type DeviceProvider interface {
	Devices() *kegtron.Group
}

// Responder is the outbound Slack surface the dispatcher speaks to.
type Responder interface {
	Respond(ctx context.Context, responseURL string, doc slack.Document, opts slack.ResponseOptions) bool
	RespondText(ctx context.Context, responseURL, text string) bool
	Delete(ctx context.Context, responseURL string) bool
	OpenModal(ctx context.Context, botToken, triggerID string, view slack.Document, callbackID, metadata string) error
}

// Dispatcher turns classified Slack deliveries into device lookups, rendered
// documents, and outbound responses.
type Dispatcher struct {
	auths         AuthProvider
	devices       DeviceProvider
	slack         Responder
	defaultDevice string
	logger        zerolog.Logger
}

// NewDispatcher wires a dispatcher over the given providers and outbound
// client. defaultDevice names the device slash commands report on.
func NewDispatcher(auths AuthProvider, devices DeviceProvider, responder Responder, defaultDevice string, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		auths:         auths,
		devices:       devices,
		slack:         responder,
		defaultDevice: defaultDevice,
		logger:        logger.With().Str("component", "dispatcher").Logger(),
	}
}

// Authorize resolves the bot token for a workspace. Unknown workspaces are
// rejected before any other work happens.
func (d *Dispatcher) Authorize(teamID string) (string, bool) {
	return d.auths.Auths().BotToken(teamID)
}

// HandleCommand serves a slash command: refresh the default device and post
// its shareable status back in channel, attributed to the invoking user.
func (d *Dispatcher) HandleCommand(ctx context.Context, cmd slack.Command) {
	device, ok := d.devices.Devices().Device(d.defaultDevice)
	if !ok {
		d.logger.Error().Str("device", d.defaultDevice).Msg("default device not registered")
		d.slack.RespondText(ctx, cmd.ResponseURL, fmt.Sprintf("No kegtron device named %q is registered.", d.defaultDevice))
		return
	}

	d.ensureFresh(ctx, device)

	doc := statusDocument(device.Name(), device.Kegs(), StatusOptions{
		Shareable:   true,
		ShowContext: true,
		SharedBy:    cmd.UserID,
	}, d.logger)
	d.slack.Respond(ctx, cmd.ResponseURL, doc, slack.ResponseOptions{InChannel: true})
}

// HandleInteraction serves an interactive delivery after classification.
// Unknown types are logged and dropped.
func (d *Dispatcher) HandleInteraction(ctx context.Context, inter *slack.Interaction) {
	switch {
	case inter.IsBlockActions():
		d.handleBlockActions(ctx, inter)
	case inter.IsViewSubmission():
		d.handleViewSubmission(ctx, inter)
	default:
		d.logger.Warn().Str("type", inter.Type).Msg("dropping interaction of unknown type")
	}
}

// handleBlockActions serves each fired action in platform order. A single
// gesture can carry several actions; one failing action never blocks the rest.
func (d *Dispatcher) handleBlockActions(ctx context.Context, inter *slack.Interaction) {
	botToken, ok := d.Authorize(inter.Team.ID)
	if !ok {
		d.logger.Warn().Str("team_id", inter.Team.ID).Msg("dropping action from unrecognized workspace")
		return
	}

	for _, action := range inter.Actions {
		switch action.ActionID {
		case actionDismiss:
			d.slack.Delete(ctx, inter.ResponseURL)
		case actionShareKegModal:
			d.openShareModal(ctx, botToken, inter.TriggerID, action.Value)
		case actionBeerSignal:
			d.openBeerSignalModal(ctx, botToken, inter.TriggerID, action.Value)
		default:
			d.logger.Warn().Str("action_id", action.ActionID).Msg("ignoring unknown action")
		}
	}
}

// openShareModal opens the single-keg share modal for a Share button. The
// button value carries the keg's device and port; the same pair rides the
// modal metadata so the submission can find the keg again.
func (d *Dispatcher) openShareModal(ctx context.Context, botToken, triggerID, value string) {
	deviceName, port, err := parseKegRef(value)
	if err != nil {
		d.logger.Error().Err(err).Str("value", value).Msg("malformed share button value")
		return
	}
	keg, ok := d.lookupKeg(deviceName, port)
	if !ok {
		d.logger.Error().Str("device", deviceName).Int("port", port).Msg("share target not found")
		return
	}

	metadata, err := EncodeIntent(Intent{Kind: IntentShare, Device: deviceName, Port: port})
	if err != nil {
		d.logger.Error().Err(err).Msg("failed to encode share intent")
		return
	}

	view := modalDocument([]kegtron.Keg{keg}, d.logger)
	if err := d.slack.OpenModal(ctx, botToken, triggerID, view, callbackShareKeg, metadata); err != nil {
		d.logger.Error().Err(err).Msg("failed to open share modal")
	}
}

// openBeerSignalModal opens the whole-device share modal for the Beer Signal
// button. The button value is the device name.
func (d *Dispatcher) openBeerSignalModal(ctx context.Context, botToken, triggerID, deviceName string) {
	device, ok := d.devices.Devices().Device(deviceName)
	if !ok {
		d.logger.Error().Str("device", deviceName).Msg("beer signal target not found")
		return
	}

	metadata, err := EncodeIntent(Intent{Kind: IntentBeerSignal, Device: deviceName})
	if err != nil {
		d.logger.Error().Err(err).Msg("failed to encode beer signal intent")
		return
	}

	view := modalDocument(device.Kegs(), d.logger)
	if err := d.slack.OpenModal(ctx, botToken, triggerID, view, callbackBeerSignal, metadata); err != nil {
		d.logger.Error().Err(err).Msg("failed to open beer signal modal")
	}
}

// handleViewSubmission resumes a modal flow from its restored intent and posts
// the shared status into the conversation the user picked.
func (d *Dispatcher) handleViewSubmission(ctx context.Context, inter *slack.Interaction) {
	intent, err := DecodeIntent(inter.View.PrivateMetadata)
	if err != nil {
		d.logger.Error().Err(err).Msg("failed to decode modal metadata")
		return
	}

	customMsg := inter.StateValue(customMessageBlockID, customMessageInputID)
	target := inter.FirstResponseURL()
	if target == "" {
		d.logger.Error().Str("intent", intent.Kind).Msg("view submission carried no response url")
		return
	}

	switch intent.Kind {
	case IntentShare:
		keg, ok := d.lookupKeg(intent.Device, intent.Port)
		if !ok {
			d.logger.Error().Str("device", intent.Device).Int("port", intent.Port).Msg("shared keg no longer present")
			return
		}
		doc := statusDocument(intent.Device, []kegtron.Keg{keg}, StatusOptions{
			ShowContext:   true,
			SharedBy:      inter.User.ID,
			CustomMessage: customMsg,
		}, d.logger)
		d.slack.Respond(ctx, target, doc, slack.ResponseOptions{InChannel: true})
	case IntentBeerSignal:
		device, ok := d.devices.Devices().Device(intent.Device)
		if !ok {
			d.logger.Error().Str("device", intent.Device).Msg("beer signal device no longer present")
			return
		}
		doc := statusDocument(intent.Device, device.Kegs(), StatusOptions{
			ShowContext:   true,
			SharedBy:      inter.User.ID,
			CustomMessage: customMsg,
		}, d.logger)
		d.slack.Respond(ctx, target, doc, slack.ResponseOptions{InChannel: true, DeleteOriginal: true})
	default:
		d.logger.Warn().Str("intent", intent.Kind).Msg("ignoring submission with unknown intent")
	}
}

// ensureFresh refreshes a device, tolerating failure. Stale data renders
// rather than erroring out on the user.
func (d *Dispatcher) ensureFresh(ctx context.Context, device *kegtron.Device) {
	if err := device.EnsureFresh(ctx); err != nil {
		d.logger.Warn().Err(err).Str("device", device.Name()).Msg("refresh failed, serving cached data")
	}
}

// lookupKeg finds a keg by device name and port within the device's current
// keg list.
func (d *Dispatcher) lookupKeg(deviceName string, port int) (kegtron.Keg, bool) {
	device, ok := d.devices.Devices().Device(deviceName)
	if !ok {
		return kegtron.Keg{}, false
	}
	for _, keg := range device.Kegs() {
		if keg.Port == port {
			return keg, true
		}
	}
	return kegtron.Keg{}, false
}

// parseKegRef decodes the "<device>|<port>" value produced by kegRef.
func parseKegRef(value string) (string, int, error) {
	idx := strings.LastIndex(value, "|")
	if idx < 0 {
		return "", 0, fmt.Errorf("keg reference %q missing separator", value)
	}
	port, err := strconv.Atoi(value[idx+1:])
	if err != nil {
		return "", 0, fmt.Errorf("keg reference %q has bad port: %w", value, err)
	}
	return value[:idx], port, nil
}
