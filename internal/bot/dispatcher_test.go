package bot

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pendo-io/kegtronbot/internal/kegtron"
	"github.com/pendo-io/kegtronbot/internal/slack"
)

// mockResponder is a mock implementation of the Responder interface.
type mockResponder struct {
	RespondFunc     func(ctx context.Context, responseURL string, doc slack.Document, opts slack.ResponseOptions) bool
	RespondTextFunc func(ctx context.Context, responseURL, text string) bool
	DeleteFunc      func(ctx context.Context, responseURL string) bool
	OpenModalFunc   func(ctx context.Context, botToken, triggerID string, view slack.Document, callbackID, metadata string) error
}

func (m *mockResponder) Respond(ctx context.Context, responseURL string, doc slack.Document, opts slack.ResponseOptions) bool {
	return m.RespondFunc(ctx, responseURL, doc, opts)
}

func (m *mockResponder) RespondText(ctx context.Context, responseURL, text string) bool {
	return m.RespondTextFunc(ctx, responseURL, text)
}

func (m *mockResponder) Delete(ctx context.Context, responseURL string) bool {
	return m.DeleteFunc(ctx, responseURL)
}

func (m *mockResponder) OpenModal(ctx context.Context, botToken, triggerID string, view slack.Document, callbackID, metadata string) error {
	return m.OpenModalFunc(ctx, botToken, triggerID, view, callbackID, metadata)
}

type staticAuths struct {
	group *slack.AuthGroup
}

func (s staticAuths) Auths() *slack.AuthGroup { return s.group }

type staticDevices struct {
	group *kegtron.Group
}

func (s staticDevices) Devices() *kegtron.Group { return s.group }

func newTestDispatcher(responder *mockResponder) *Dispatcher {
	auths := staticAuths{group: slack.NewAuthGroup([]slack.Workspace{
		{Name: "acme", BotToken: "xoxb-1", TeamID: "T1"},
	})}

	group := kegtron.NewGroup()
	group.Add(kegtron.NewStaticDevice("office", testKegs()))
	devices := staticDevices{group: group}

	return NewDispatcher(auths, devices, responder, "office", zerolog.Nop())
}

func TestDispatcher_Authorize(t *testing.T) {
	d := newTestDispatcher(&mockResponder{})

	token, ok := d.Authorize("T1")
	assert.True(t, ok)
	assert.Equal(t, "xoxb-1", token)

	_, ok = d.Authorize("T999")
	assert.False(t, ok)
}

func TestDispatcher_HandleCommand(t *testing.T) {
	var gotURL string
	var gotDoc slack.Document
	var gotOpts slack.ResponseOptions
	responder := &mockResponder{
		RespondFunc: func(ctx context.Context, responseURL string, doc slack.Document, opts slack.ResponseOptions) bool {
			gotURL = responseURL
			gotDoc = doc
			gotOpts = opts
			return true
		},
	}

	d := newTestDispatcher(responder)
	d.HandleCommand(context.Background(), slack.Command{
		UserID:      "U123",
		ResponseURL: "https://hooks.slack.example/r/1",
		TeamID:      "T1",
	})

	assert.Equal(t, "https://hooks.slack.example/r/1", gotURL)
	assert.True(t, gotOpts.InChannel)
	assert.Nil(t, gotDoc.Modal)

	blocks := renderedBlocks(t, gotDoc)
	types := blockTypes(blocks)
	assert.Equal(t, "header", types[0])
	assert.Equal(t, "actions", types[len(types)-1])
}

func TestDispatcher_HandleCommand_UnknownDefaultDevice(t *testing.T) {
	var gotText string
	responder := &mockResponder{
		RespondTextFunc: func(ctx context.Context, responseURL, text string) bool {
			gotText = text
			return true
		},
	}

	auths := staticAuths{group: slack.NewAuthGroup(nil)}
	devices := staticDevices{group: kegtron.NewGroup()}
	d := NewDispatcher(auths, devices, responder, "basement", zerolog.Nop())

	d.HandleCommand(context.Background(), slack.Command{ResponseURL: "https://hooks.slack.example/r/1"})
	assert.Contains(t, gotText, "basement")
}

func TestDispatcher_Dismiss(t *testing.T) {
	var deleted string
	responder := &mockResponder{
		DeleteFunc: func(ctx context.Context, responseURL string) bool {
			deleted = responseURL
			return true
		},
	}

	d := newTestDispatcher(responder)
	d.HandleInteraction(context.Background(), &slack.Interaction{
		Type:        slack.TypeBlockActions,
		Team:        slack.Team{ID: "T1"},
		ResponseURL: "https://hooks.slack.example/r/1",
		Actions:     []slack.Action{{ActionID: "dismiss", Value: "dismiss"}},
	})

	assert.Equal(t, "https://hooks.slack.example/r/1", deleted)
}

func TestDispatcher_ShareButtonOpensModal(t *testing.T) {
	var gotToken, gotTrigger, gotCallback, gotMetadata string
	var gotView slack.Document
	responder := &mockResponder{
		OpenModalFunc: func(ctx context.Context, botToken, triggerID string, view slack.Document, callbackID, metadata string) error {
			gotToken = botToken
			gotTrigger = triggerID
			gotView = view
			gotCallback = callbackID
			gotMetadata = metadata
			return nil
		},
	}

	d := newTestDispatcher(responder)
	d.HandleInteraction(context.Background(), &slack.Interaction{
		Type:      slack.TypeBlockActions,
		Team:      slack.Team{ID: "T1"},
		TriggerID: "trig-1",
		Actions:   []slack.Action{{ActionID: "share_keg_modal", Value: "office|1"}},
	})

	assert.Equal(t, "xoxb-1", gotToken)
	assert.Equal(t, "trig-1", gotTrigger)
	assert.Equal(t, "share_keg", gotCallback)
	require.NotNil(t, gotView.Modal)

	intent, err := DecodeIntent(gotMetadata)
	require.NoError(t, err)
	assert.Equal(t, Intent{Kind: IntentShare, Device: "office", Port: 1}, intent)
}

func TestDispatcher_BeerSignalOpensModal(t *testing.T) {
	var gotMetadata, gotCallback string
	responder := &mockResponder{
		OpenModalFunc: func(ctx context.Context, botToken, triggerID string, view slack.Document, callbackID, metadata string) error {
			gotCallback = callbackID
			gotMetadata = metadata
			return nil
		},
	}

	d := newTestDispatcher(responder)
	d.HandleInteraction(context.Background(), &slack.Interaction{
		Type:      slack.TypeBlockActions,
		Team:      slack.Team{ID: "T1"},
		TriggerID: "trig-1",
		Actions:   []slack.Action{{ActionID: "beer_signal_modal", Value: "office"}},
	})

	assert.Equal(t, "beer_signal", gotCallback)
	intent, err := DecodeIntent(gotMetadata)
	require.NoError(t, err)
	assert.Equal(t, Intent{Kind: IntentBeerSignal, Device: "office"}, intent)
}

func TestDispatcher_UnknownWorkspaceDropsActions(t *testing.T) {
	// No mock funcs are set; any outbound call would panic the test.
	d := newTestDispatcher(&mockResponder{})
	d.HandleInteraction(context.Background(), &slack.Interaction{
		Type:    slack.TypeBlockActions,
		Team:    slack.Team{ID: "T999"},
		Actions: []slack.Action{{ActionID: "dismiss", Value: "dismiss"}},
	})
}

func TestDispatcher_ActionsServedInOrder(t *testing.T) {
	var calls []string
	responder := &mockResponder{
		DeleteFunc: func(ctx context.Context, responseURL string) bool {
			calls = append(calls, "delete")
			return true
		},
		OpenModalFunc: func(ctx context.Context, botToken, triggerID string, view slack.Document, callbackID, metadata string) error {
			calls = append(calls, "modal")
			return nil
		},
	}

	d := newTestDispatcher(responder)
	d.HandleInteraction(context.Background(), &slack.Interaction{
		Type:      slack.TypeBlockActions,
		Team:      slack.Team{ID: "T1"},
		TriggerID: "trig-1",
		Actions: []slack.Action{
			{ActionID: "share_keg_modal", Value: "office|0"},
			{ActionID: "unknown_thing", Value: "x"},
			{ActionID: "dismiss", Value: "dismiss"},
		},
	})

	assert.Equal(t, []string{"modal", "delete"}, calls)
}

func TestDispatcher_ShareSubmission(t *testing.T) {
	var gotURL string
	var gotDoc slack.Document
	var gotOpts slack.ResponseOptions
	responder := &mockResponder{
		RespondFunc: func(ctx context.Context, responseURL string, doc slack.Document, opts slack.ResponseOptions) bool {
			gotURL = responseURL
			gotDoc = doc
			gotOpts = opts
			return true
		},
	}

	metadata, err := EncodeIntent(Intent{Kind: IntentShare, Device: "office", Port: 0})
	require.NoError(t, err)

	d := newTestDispatcher(responder)
	d.HandleInteraction(context.Background(), &slack.Interaction{
		Type: slack.TypeViewSubmission,
		User: slack.User{ID: "U123"},
		Team: slack.Team{ID: "T1"},
		View: slack.View{
			CallbackID:      "share_keg",
			PrivateMetadata: metadata,
			State: slack.ViewState{Values: map[string]map[string]slack.FieldValue{
				"custom_message_block": {
					"custom_message_input": {Value: "fresh keg!"},
				},
			}},
		},
		ResponseURLs: []slack.ResponseURL{{ResponseURL: "https://hooks.slack.example/r/2"}},
	})

	assert.Equal(t, "https://hooks.slack.example/r/2", gotURL)
	assert.True(t, gotOpts.InChannel)
	assert.False(t, gotOpts.DeleteOriginal)

	blocks := renderedBlocks(t, gotDoc)
	types := blockTypes(blocks)
	// Shared messages carry attribution but no action footer.
	assert.Contains(t, types, "context")
	assert.NotContains(t, types, "actions")
	assert.Equal(t, "fresh keg!", blocks[2]["text"].(map[string]any)["text"])
}

func TestDispatcher_BeerSignalSubmissionDeletesOriginal(t *testing.T) {
	var gotOpts slack.ResponseOptions
	responder := &mockResponder{
		RespondFunc: func(ctx context.Context, responseURL string, doc slack.Document, opts slack.ResponseOptions) bool {
			gotOpts = opts
			return true
		},
	}

	metadata, err := EncodeIntent(Intent{Kind: IntentBeerSignal, Device: "office"})
	require.NoError(t, err)

	d := newTestDispatcher(responder)
	d.HandleInteraction(context.Background(), &slack.Interaction{
		Type: slack.TypeViewSubmission,
		User: slack.User{ID: "U123"},
		Team: slack.Team{ID: "T1"},
		View: slack.View{CallbackID: "beer_signal", PrivateMetadata: metadata},
		ResponseURLs: []slack.ResponseURL{
			{ResponseURL: "https://hooks.slack.example/r/3"},
		},
	})

	assert.True(t, gotOpts.InChannel)
	assert.True(t, gotOpts.DeleteOriginal)
}

func TestDispatcher_SubmissionWithoutResponseURLDropped(t *testing.T) {
	metadata, err := EncodeIntent(Intent{Kind: IntentShare, Device: "office", Port: 0})
	require.NoError(t, err)

	// No mock funcs are set; any outbound call would panic the test.
	d := newTestDispatcher(&mockResponder{})
	d.HandleInteraction(context.Background(), &slack.Interaction{
		Type: slack.TypeViewSubmission,
		Team: slack.Team{ID: "T1"},
		View: slack.View{CallbackID: "share_keg", PrivateMetadata: metadata},
	})
}

func TestSpawner_RecoversPanics(t *testing.T) {
	s := NewSpawner(zerolog.Nop())
	s.Go("boom", func() {
		panic("boom")
	})
	s.Wait()
}
