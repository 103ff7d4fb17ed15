package notifications

import (
	"context"
	"sync"

	"applyflow-backend/internal/shared/telemetry"
)

// MemoryNotifier records messages instead of delivering them, for local dev
// and tests.
type MemoryNotifier struct {
	mu   sync.Mutex
	sent []Message
}

// NewMemoryNotifier constructs a MemoryNotifier.
func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{}
}

// Send records the message.
func (n *MemoryNotifier) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.mu.Lock()
	n.sent = append(n.sent, msg)
	n.mu.Unlock()
	telemetry.Info("notification.recorded", map[string]any{
		"application_id": msg.ApplicationID,
		"to":             msg.To,
		"priority":       msg.Priority,
	})
	return nil
}

// Sent returns a copy of all recorded messages.
func (n *MemoryNotifier) Sent() []Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Message(nil), n.sent...)
}

var _ Notifier = (*MemoryNotifier)(nil)
