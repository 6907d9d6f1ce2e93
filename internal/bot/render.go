package bot

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pendo-io/kegtronbot/internal/kegtron"
	"github.com/pendo-io/kegtronbot/internal/slack"
)

// Block ids and action ids shared between the rendered surfaces and the
// interaction handlers that read them back.
const (
	actionDismiss        = "dismiss"
	actionShareKegModal  = "share_keg_modal"
	actionBeerSignal     = "beer_signal_modal"
	customMessageBlockID = "custom_message_block"
	customMessageInputID = "custom_message_input"
	channelSelectBlockID = "channel_select_block"
	channelSelectInputID = "channel_select"
)

// StatusOptions select the chrome around a device status rendering.
type StatusOptions struct {
	// Shareable renders one section per keg with a Share button and appends
	// the device-level action footer. Otherwise kegs pair up two per section
	// as parallel fields and no footer is added.
	Shareable bool
	// ShowContext appends the shared-by context line.
	ShowContext bool
	// SharedBy is the user id attributed in the context line.
	SharedBy string
	// CustomMessage is an optional message section under the header.
	CustomMessage string
}

// statusDocument renders the status recipe: header, optional custom message,
// per-keg body, optional context, optional action footer.
func statusDocument(deviceName string, kegs []kegtron.Keg, opts StatusOptions, logger zerolog.Logger) slack.Document {
	c := slack.NewComposer(logger)
	addHeader(c)
	if opts.CustomMessage != "" {
		c.AddSection(opts.CustomMessage)
		c.AddDivider()
	}
	addKegBody(c, kegs, opts.Shareable)
	if opts.ShowContext {
		c.AddContext(sharedByContext(opts.SharedBy))
	}
	if opts.Shareable {
		addActionFooter(c, deviceName)
	}
	return c.Message()
}

// modalDocument renders the modal recipe: conversation select, custom message
// input, non-shareable keg body. Modals submit through the platform's own
// submit button, so no action footer is ever added.
func modalDocument(kegs []kegtron.Keg, logger zerolog.Logger) slack.Document {
	c := slack.NewComposer(logger)
	c.AddConversationSelect("Choose a Channel to Share In", channelSelectInputID, channelSelectBlockID, false)
	c.AddDivider()
	c.AddTextInput("Custom Message", customMessageInputID, customMessageBlockID, true)
	c.AddDivider()
	addKegBody(c, kegs, false)
	return c.Modal("Share Keg Status", "Share")
}

func addHeader(c *slack.Composer) {
	c.AddHeader(":beers: Check Out What's On Tap! :beers:")
	c.AddDivider()
}

// addKegBody appends the per-keg sections shared by the status and modal
// recipes. Shareable mode gets a Share button per keg keyed by
// "<device>|<port>"; otherwise kegs pair up two per section.
func addKegBody(c *slack.Composer, kegs []kegtron.Keg, shareable bool) {
	if shareable {
		for _, keg := range kegs {
			c.Add(slack.Section{
				Texts: []string{keg.MarkdownStatus()},
				Accessory: &slack.Button{
					Text:     "Share",
					Value:    kegRef(keg),
					ActionID: actionShareKegModal,
				},
			})
		}
	} else {
		for i := 0; i < len(kegs); i += 2 {
			texts := []string{kegs[i].MarkdownStatus()}
			if i+1 < len(kegs) {
				texts = append(texts, kegs[i+1].MarkdownStatus())
			} else {
				texts = append(texts, " ")
			}
			c.AddSection(texts...)
		}
	}
	c.AddDivider()
}

func addActionFooter(c *slack.Composer, deviceName string) {
	c.AddActions(
		slack.Button{Text: "Beer Signal", Value: deviceName, ActionID: actionBeerSignal},
		slack.Button{Text: "Dismiss", Value: "dismiss", ActionID: actionDismiss},
	)
}

func sharedByContext(userID string) string {
	if userID == "" {
		return ":beer: Shared via */kegtron*"
	}
	return fmt.Sprintf(":beer: Shared by <@%s> via */kegtron*", userID)
}

// kegRef encodes a keg's device and port into an opaque button value.
func kegRef(keg kegtron.Keg) string {
	return fmt.Sprintf("%s|%d", keg.DeviceName, keg.Port)
}
