package push

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dukerupert/fairshare/internal/model"
)

// Sender delivers one payload to one subscription.
type Sender interface {
	Send(ctx context.Context, sub *model.PushSubscription, payload Payload) error
}

// Subscriptions looks up and prunes a member's registered devices.
type Subscriptions interface {
	ListByMember(ctx context.Context, memberID int64) ([]model.PushSubscription, error)
	DeleteByEndpoint(ctx context.Context, endpoint string) error
}

// Notifier sends a payload to every device of a member. A Notifier with a
// nil Sender drops everything, which is how push runs without VAPID keys.
type Notifier struct {
	sender Sender
	subs   Subscriptions
	logger *slog.Logger
}

func NewNotifier(sender Sender, subs Subscriptions, logger *slog.Logger) *Notifier {
	return &Notifier{sender: sender, subs: subs, logger: logger}
}

// NotifyMember is best effort: failures are logged, expired subscriptions
// are deleted, and nothing is returned to the caller.
func (n *Notifier) NotifyMember(ctx context.Context, memberID int64, payload Payload) {
	if n == nil || n.sender == nil {
		return
	}

	subs, err := n.subs.ListByMember(ctx, memberID)
	if err != nil {
		n.logger.Error("list push subscriptions", "member_id", memberID, "error", err)
		return
	}

	for _, sub := range subs {
		err := n.sender.Send(ctx, &sub, payload)
		switch {
		case err == nil:
		case errors.Is(err, ErrExpired):
			if err := n.subs.DeleteByEndpoint(ctx, sub.Endpoint); err != nil {
				n.logger.Error("delete expired subscription", "member_id", memberID, "error", err)
			}
		default:
			n.logger.Warn("send push", "member_id", memberID, "tag", payload.Tag, "error", err)
		}
	}
}
