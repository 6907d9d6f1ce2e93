package slack

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Interaction payload type discriminators.
const (
	TypeBlockActions   = "block_actions"
	TypeViewSubmission = "view_submission"
)

// Command is an inbound slash-command delivery, parsed from its form body.
type Command struct {
	UserID      string
	UserName    string
	Command     string
	ResponseURL string
	TeamID      string
}

// ParseCommand extracts a Command from the request's form fields.
func ParseCommand(r *http.Request) Command {
	return Command{
		UserID:      r.FormValue("user_id"),
		UserName:    r.FormValue("user_name"),
		Command:     r.FormValue("command"),
		ResponseURL: r.FormValue("response_url"),
		TeamID:      r.FormValue("team_id"),
	}
}

// User identifies the acting Slack user.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Team identifies the workspace an interaction came from.
type Team struct {
	ID string `json:"id"`
}

// Action is one control fired in a user gesture, in platform order.
type Action struct {
	ActionID string `json:"action_id"`
	Value    string `json:"value"`
}

// FieldValue is the submitted state of one modal input.
type FieldValue struct {
	Value                string `json:"value"`
	SelectedConversation string `json:"selected_conversation"`
}

// ViewState holds submitted modal values keyed by block id then action id.
type ViewState struct {
	Values map[string]map[string]FieldValue `json:"values"`
}

// View is the modal attached to a view_submission payload.
type View struct {
	CallbackID      string    `json:"callback_id"`
	PrivateMetadata string    `json:"private_metadata"`
	State           ViewState `json:"state"`
}

// ResponseURL is one response target supplied with a view submission.
type ResponseURL struct {
	ResponseURL string `json:"response_url"`
}

// Interaction is an inbound interactive delivery: either a block_actions
// gesture on a rendered message or a view_submission completing a modal.
type Interaction struct {
	Type         string        `json:"type"`
	User         User          `json:"user"`
	Team         Team          `json:"team"`
	TriggerID    string        `json:"trigger_id"`
	ResponseURL  string        `json:"response_url"`
	Actions      []Action      `json:"actions"`
	View         View          `json:"view"`
	ResponseURLs []ResponseURL `json:"response_urls"`
}

// ParseInteraction decodes the JSON payload field of an interactive delivery.
func ParseInteraction(payload string) (*Interaction, error) {
	if payload == "" {
		return nil, fmt.Errorf("empty interaction payload")
	}
	var inter Interaction
	if err := json.Unmarshal([]byte(payload), &inter); err != nil {
		return nil, fmt.Errorf("failed to unmarshal interaction payload: %w", err)
	}
	return &inter, nil
}

// IsBlockActions reports whether the delivery is a block_actions gesture.
func (i *Interaction) IsBlockActions() bool {
	return i.Type == TypeBlockActions
}

// IsViewSubmission reports whether the delivery completes a modal.
func (i *Interaction) IsViewSubmission() bool {
	return i.Type == TypeViewSubmission
}

// StateValue looks up a submitted text value by block id and action id.
func (i *Interaction) StateValue(blockID, actionID string) string {
	block, ok := i.View.State.Values[blockID]
	if !ok {
		return ""
	}
	return block[actionID].Value
}

// FirstResponseURL returns the first platform-supplied response target, or ""
// when none was provided.
func (i *Interaction) FirstResponseURL() string {
	if len(i.ResponseURLs) == 0 {
		return ""
	}
	return i.ResponseURLs[0].ResponseURL
}
