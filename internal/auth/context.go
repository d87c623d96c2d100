package auth

import (
	"context"

	"github.com/dukerupert/fairshare/internal/model"
)

type contextKey struct{}

// Actor is the household member a request acts as.
type Actor struct {
	MemberID    int64
	HouseholdID int64
	Name        string
	Role        string
}

func ActorFromMember(m *model.Member) Actor {
	return Actor{MemberID: m.ID, HouseholdID: m.HouseholdID, Name: m.Name, Role: m.Role}
}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, a)
}

func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(contextKey{}).(Actor)
	return a, ok
}

func HouseholdID(ctx context.Context) int64 {
	a, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return a.HouseholdID
}

func MemberID(ctx context.Context) int64 {
	a, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return a.MemberID
}

func IsAdmin(ctx context.Context) bool {
	a, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return a.Role == model.RoleAdmin
}
