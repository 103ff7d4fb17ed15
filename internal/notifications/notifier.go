package notifications

import (
	"context"
	"encoding/json"
)

// Message is the final handoff to the outbound mail dispatcher. Delivery
// guarantees beyond the dispatcher's own semantics are out of scope here.
type Message struct {
	ApplicationID string `json:"applicationId"`
	To            string `json:"to"`
	Subject       string `json:"subject"`
	Body          string `json:"body"`
	AttachmentURL string `json:"attachmentUrl,omitempty"`
	Priority      int    `json:"priority"`
	EnqueuedAt    string `json:"enqueuedAt"`
}

// Notifier hands a finished application to the mail dispatcher.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
