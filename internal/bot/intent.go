package bot

import (
	"encoding/json"
	"fmt"
)

// Intent kinds carried across a modal round trip.
const (
	IntentShare      = "share"
	IntentBeerSignal = "beer_signal"
)

// Modal callback ids identifying which submission handler resumes a flow.
const (
	callbackShareKeg   = "share_keg"
	callbackBeerSignal = "beer_signal"
)

// Intent is the application state attached to a modal at open time and
// restored on submission. It is the only channel carrying state across the
// round trip; Slack stores the encoded form verbatim.
type Intent struct {
	Kind   string `json:"kind"`
	Device string `json:"device"`
	Port   int    `json:"port,omitempty"`
}

// EncodeIntent serializes an intent into the opaque metadata string.
func EncodeIntent(in Intent) (string, error) {
	raw, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("failed to encode intent: %w", err)
	}
	return string(raw), nil
}

// DecodeIntent restores an intent from the metadata string returned by Slack.
// Decoding what EncodeIntent produced always yields the identical value.
func DecodeIntent(metadata string) (Intent, error) {
	var in Intent
	if err := json.Unmarshal([]byte(metadata), &in); err != nil {
		return Intent{}, fmt.Errorf("failed to decode intent: %w", err)
	}
	return in, nil
}
