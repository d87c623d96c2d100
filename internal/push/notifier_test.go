package push

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/dukerupert/fairshare/internal/model"
)

type fakeSender struct {
	sent    []string
	expired map[string]bool
}

func (f *fakeSender) Send(_ context.Context, sub *model.PushSubscription, payload Payload) error {
	if f.expired[sub.Endpoint] {
		return ErrExpired
	}
	if sub.Endpoint == "broken" {
		return errors.New("push service returned 500")
	}
	f.sent = append(f.sent, sub.Endpoint+":"+payload.Tag)
	return nil
}

type fakeSubs struct {
	subs    []model.PushSubscription
	deleted []string
}

func (f *fakeSubs) ListByMember(_ context.Context, memberID int64) ([]model.PushSubscription, error) {
	var out []model.PushSubscription
	for _, s := range f.subs {
		if s.MemberID == memberID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSubs) DeleteByEndpoint(_ context.Context, endpoint string) error {
	f.deleted = append(f.deleted, endpoint)
	return nil
}

func TestNotifyMember(t *testing.T) {
	sender := &fakeSender{expired: map[string]bool{"old-phone": true}}
	subs := &fakeSubs{subs: []model.PushSubscription{
		{MemberID: 2, Endpoint: "tablet"},
		{MemberID: 2, Endpoint: "old-phone"},
		{MemberID: 2, Endpoint: "broken"},
		{MemberID: 3, Endpoint: "someone-else"},
	}}
	n := NewNotifier(sender, subs, slog.Default())

	n.NotifyMember(context.Background(), 2, Payload{Title: "Chore offered", Tag: "offer-9"})

	if len(sender.sent) != 1 || sender.sent[0] != "tablet:offer-9" {
		t.Errorf("sent = %v, want [tablet:offer-9]", sender.sent)
	}
	if len(subs.deleted) != 1 || subs.deleted[0] != "old-phone" {
		t.Errorf("deleted = %v, want [old-phone]", subs.deleted)
	}
}

func TestNotifyMemberDisabled(t *testing.T) {
	subs := &fakeSubs{subs: []model.PushSubscription{{MemberID: 2, Endpoint: "tablet"}}}
	n := NewNotifier(nil, subs, slog.Default())
	// Should not panic or touch subscriptions.
	n.NotifyMember(context.Background(), 2, Payload{Title: "x"})

	var nilNotifier *Notifier
	nilNotifier.NotifyMember(context.Background(), 2, Payload{Title: "x"})
}
