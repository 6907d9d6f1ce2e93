package slack

import "github.com/rs/zerolog"

// Composer accumulates blocks in insertion order and compiles them into a
// message or modal Document. Insertion order is the render order; nothing is
// reordered, merged, or deduplicated.
type Composer struct {
	blocks []Block
	logger zerolog.Logger
}

// NewComposer creates an empty composer.
func NewComposer(logger zerolog.Logger) *Composer {
	return &Composer{logger: logger.With().Str("component", "slack.compose").Logger()}
}

// Add appends a block. A nil block is logged and ignored, never a crash.
func (c *Composer) Add(b Block) {
	if b == nil {
		c.logger.Warn().Msg("ignoring nil block")
		return
	}
	c.blocks = append(c.blocks, b)
}

// AddDivider appends a divider.
func (c *Composer) AddDivider() {
	c.Add(Divider{})
}

// AddHeader appends a header with the given text.
func (c *Composer) AddHeader(text string) {
	c.Add(Header{Text: text})
}

// AddContext appends a context line.
func (c *Composer) AddContext(text string) {
	c.Add(Context{Text: text})
}

// AddSection appends a section with one or more parallel texts.
func (c *Composer) AddSection(texts ...string) {
	c.Add(Section{Texts: texts})
}

// AddTextInput appends a free-text modal input.
func (c *Composer) AddTextInput(label, actionID, blockID string, optional bool) {
	c.Add(TextInput{Label: label, ActionID: actionID, BlockID: blockID, Optional: optional})
}

// AddConversationSelect appends a conversation picker modal input.
func (c *Composer) AddConversationSelect(label, actionID, blockID string, optional bool) {
	c.Add(ConversationSelect{Label: label, ActionID: actionID, BlockID: blockID, Optional: optional})
}

// AddActions appends a row of buttons.
func (c *Composer) AddActions(buttons ...Button) {
	c.Add(Actions{Buttons: buttons})
}

// Len reports the number of accumulated blocks.
func (c *Composer) Len() int {
	return len(c.blocks)
}

// Message compiles the accumulated blocks into a standalone message document.
func (c *Composer) Message() Document {
	return Document{Blocks: c.snapshot()}
}

// Modal compiles the accumulated blocks into a modal document with the given
// title and submit-button text. Callback id and metadata are attached at
// modal-open time.
func (c *Composer) Modal(title, submitText string) Document {
	return Document{
		Blocks: c.snapshot(),
		Modal:  &ModalChrome{Title: title, SubmitText: submitText},
	}
}

func (c *Composer) snapshot() []Block {
	out := make([]Block, len(c.blocks))
	copy(out, c.blocks)
	return out
}
