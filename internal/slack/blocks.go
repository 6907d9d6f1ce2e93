package slack

import "encoding/json"

// Block is one renderable component of a message or modal. The set of
// implementations is closed; serialization is a single exhaustive switch in
// blockJSON rather than per-type marshalers.
type Block interface {
	isBlock()
}

// Divider is a horizontal rule.
type Divider struct{}

// Header is a large plain-text heading.
type Header struct {
	Text string
}

// Context is a small mrkdwn context line.
type Context struct {
	Text string
}

// Button is an actionable control, used standalone in an Actions row or as a
// Section accessory. Value is opaque application state echoed back on click.
type Button struct {
	Text     string
	Value    string
	ActionID string
}

// Section is a mrkdwn text block. One text renders as a single body; several
// render as parallel fields. An optional button accessory sits alongside.
type Section struct {
	Texts     []string
	Accessory *Button
}

// TextInput is a modal input collecting free text.
type TextInput struct {
	Label    string
	ActionID string
	BlockID  string
	Optional bool
}

// ConversationSelect is a modal input choosing a target conversation. The
// platform generates a response URL for the chosen conversation on submit.
type ConversationSelect struct {
	Label    string
	ActionID string
	BlockID  string
	Optional bool
}

// Actions is an ordered row of buttons.
type Actions struct {
	Buttons []Button
}

func (Divider) isBlock()            {}
func (Header) isBlock()             {}
func (Context) isBlock()            {}
func (Section) isBlock()            {}
func (TextInput) isBlock()          {}
func (ConversationSelect) isBlock() {}
func (Actions) isBlock()            {}

func plainText(text string) map[string]any {
	return map[string]any{"type": "plain_text", "text": text, "emoji": true}
}

func mrkdwn(text string) map[string]any {
	return map[string]any{"type": "mrkdwn", "text": text}
}

func buttonJSON(b Button) map[string]any {
	return map[string]any{
		"type":      "button",
		"text":      plainText(b.Text),
		"value":     b.Value,
		"action_id": b.ActionID,
	}
}

// blockJSON serializes a block into its Slack block-kit shape. Unknown block
// types yield nil and are skipped by the renderer.
func blockJSON(b Block) map[string]any {
	switch b := b.(type) {
	case Divider:
		return map[string]any{"type": "divider"}
	case Header:
		return map[string]any{"type": "header", "text": plainText(b.Text)}
	case Context:
		return map[string]any{"type": "context", "elements": []any{mrkdwn(b.Text)}}
	case Section:
		out := map[string]any{"type": "section"}
		if len(b.Texts) == 1 {
			out["text"] = mrkdwn(b.Texts[0])
		} else if len(b.Texts) > 1 {
			fields := make([]any, 0, len(b.Texts))
			for _, text := range b.Texts {
				fields = append(fields, mrkdwn(text))
			}
			out["fields"] = fields
		}
		if b.Accessory != nil {
			out["accessory"] = buttonJSON(*b.Accessory)
		}
		return out
	case TextInput:
		out := map[string]any{
			"type":     "input",
			"optional": b.Optional,
			"element":  map[string]any{"type": "plain_text_input", "action_id": b.ActionID},
			"label":    plainText(b.Label),
		}
		if b.BlockID != "" {
			out["block_id"] = b.BlockID
		}
		return out
	case ConversationSelect:
		out := map[string]any{
			"type":     "input",
			"optional": b.Optional,
			"element": map[string]any{
				"type":                            "conversations_select",
				"default_to_current_conversation": true,
				"response_url_enabled":            true,
				"action_id":                       b.ActionID,
			},
			"label": plainText(b.Label),
		}
		if b.BlockID != "" {
			out["block_id"] = b.BlockID
		}
		return out
	case Actions:
		elements := make([]any, 0, len(b.Buttons))
		for _, btn := range b.Buttons {
			elements = append(elements, buttonJSON(btn))
		}
		return map[string]any{"type": "actions", "elements": elements}
	default:
		return nil
	}
}

func renderBlocks(blocks []Block) []any {
	out := make([]any, 0, len(blocks))
	for _, b := range blocks {
		if j := blockJSON(b); j != nil {
			out = append(out, j)
		}
	}
	return out
}

// ModalChrome carries the surface-level attributes of a modal view.
type ModalChrome struct {
	Title      string
	SubmitText string
	CallbackID string
	Metadata   string
}

// Document is an ordered UI tree ready to send to Slack, either as a message
// (Modal nil) or as a modal view.
type Document struct {
	Blocks []Block
	Modal  *ModalChrome
}

// MarshalJSON serializes the document in the shape Slack expects for the
// target surface.
func (d Document) MarshalJSON() ([]byte, error) {
	out := map[string]any{"blocks": renderBlocks(d.Blocks)}
	if d.Modal != nil {
		out["type"] = "modal"
		out["title"] = plainText(d.Modal.Title)
		submit := d.Modal.SubmitText
		if submit == "" {
			submit = "Submit"
		}
		out["submit"] = plainText(submit)
		if d.Modal.CallbackID != "" {
			out["callback_id"] = d.Modal.CallbackID
		}
		out["private_metadata"] = d.Modal.Metadata
	}
	return json.Marshal(out)
}
