package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// ResponseOptions control how a response replaces or augments the original
// message. The three flags are independent.
type ResponseOptions struct {
	InChannel       bool
	ReplaceOriginal bool
	DeleteOriginal  bool
}

// Client sends documents to Slack response URLs and opens modal views.
type Client struct {
	viewsOpenURL string
	client       *http.Client
	logger       zerolog.Logger
}

// NewClient creates an outbound Slack client posting modal opens to the given
// views.open endpoint.
func NewClient(viewsOpenURL string, logger zerolog.Logger) *Client {
	return &Client{
		viewsOpenURL: viewsOpenURL,
		client:       &http.Client{Timeout: 10 * time.Second},
		logger:       logger.With().Str("component", "slack.client").Logger(),
	}
}

// Respond delivers a document to a response URL. Failures are logged and
// reported as false; they never propagate, since the inbound request has
// already been acknowledged.
func (c *Client) Respond(ctx context.Context, responseURL string, doc Document, opts ResponseOptions) bool {
	body := map[string]any{
		"blocks":           renderBlocks(doc.Blocks),
		"replace_original": opts.ReplaceOriginal,
	}
	if opts.InChannel {
		body["response_type"] = "in_channel"
	} else {
		// slash commands default to ephemeral
		body["response_type"] = "ephemeral"
	}
	if opts.DeleteOriginal {
		body["delete_original"] = true
	}
	if err := c.post(ctx, responseURL, "", body); err != nil {
		c.logger.Error().Err(err).Str("response_url", responseURL).Msg("failed to deliver response")
		return false
	}
	return true
}

// RespondText delivers a plain-text response, used for denial messages.
func (c *Client) RespondText(ctx context.Context, responseURL, text string) bool {
	body := map[string]any{"text": text, "response_type": "ephemeral"}
	if err := c.post(ctx, responseURL, "", body); err != nil {
		c.logger.Error().Err(err).Str("response_url", responseURL).Msg("failed to deliver text response")
		return false
	}
	return true
}

// Delete instructs Slack to remove the original message behind a response URL.
func (c *Client) Delete(ctx context.Context, responseURL string) bool {
	body := map[string]any{"delete_original": true}
	if err := c.post(ctx, responseURL, "", body); err != nil {
		c.logger.Error().Err(err).Str("response_url", responseURL).Msg("failed to delete original message")
		return false
	}
	return true
}

type viewsOpenResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// OpenModal opens a modal view against the acting user's trigger id. The
// callback id names the submission handler that resumes later; metadata is
// the opaque application state Slack stores and returns verbatim.
func (c *Client) OpenModal(ctx context.Context, botToken, triggerID string, view Document, callbackID, metadata string) error {
	if view.Modal == nil {
		return fmt.Errorf("document is not a modal")
	}
	view.Modal.CallbackID = callbackID
	view.Modal.Metadata = metadata

	body := map[string]any{
		"trigger_id": triggerID,
		"view":       view,
	}

	raw, err := c.postRaw(ctx, c.viewsOpenURL, botToken, body)
	if err != nil {
		return err
	}

	var resp viewsOpenResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fmt.Errorf("failed to unmarshal views.open response: %w", err)
	}
	if !resp.OK {
		return fmt.Errorf("views.open rejected: %s", resp.Error)
	}
	return nil
}

func (c *Client) post(ctx context.Context, url, botToken string, body any) error {
	_, err := c.postRaw(ctx, url, botToken, body)
	return err
}

func (c *Client) postRaw(ctx context.Context, url, botToken string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if botToken != "" {
		req.Header.Set("Authorization", "Bearer "+botToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("received non-2xx status code: %d", resp.StatusCode)
	}
	return raw, nil
}
