// Package notify delivers best-effort push messages to users over the
// channels they have linked.
package notify

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Message is one notification for one recipient. Channels skip messages
// whose address for them is empty.
type Message struct {
	UserID         int64
	TelegramChatID *int64
	Email          string
	Title          string
	Body           string
}

// Notifier delivers a message on one channel.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Multi fans a message out to every channel and collects the failures.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, msg Message) error {
	var result error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, msg); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result
}

// NotifyAll sends every message and returns the combined error.
func NotifyAll(ctx context.Context, n Notifier, msgs []Message) error {
	var result error
	for _, msg := range msgs {
		if err := n.Notify(ctx, msg); err != nil {
			result = multierror.Append(result, fmt.Errorf("user %d: %w", msg.UserID, err))
		}
	}
	return result
}

// Nop drops every message.
type Nop struct{}

func (Nop) Notify(context.Context, Message) error { return nil }
