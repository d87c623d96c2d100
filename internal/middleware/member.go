package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/fairshare/internal/auth"
	"github.com/dukerupert/fairshare/internal/model"
)

const (
	MemberIDHeader  = "X-Member-ID"
	MemberPINHeader = "X-Member-PIN"

	pinFailureLimit  = 5
	pinFailureWindow = 15 * time.Minute
)

// actorSlotKey lets RequestLogger see the member identified further down
// the chain.
type actorSlotKey struct{}

func withActorSlot(ctx context.Context, a *auth.Actor) context.Context {
	return context.WithValue(ctx, actorSlotKey{}, a)
}

// MemberLookup resolves the member a request claims to act as.
type MemberLookup interface {
	GetByID(ctx context.Context, id int64) (*model.Member, error)
	GetPINHash(ctx context.Context, id int64) (string, error)
}

// ActingMember identifies the member from the X-Member-ID header and, when
// that member has a PIN, checks X-Member-PIN against it. Repeated PIN
// failures for one member are rate limited.
func ActingMember(members MemberLookup, limiter *RateLimiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := strconv.ParseInt(r.Header.Get(MemberIDHeader), 10, 64)
			if err != nil || id <= 0 {
				writeError(w, http.StatusUnauthorized, "missing or invalid "+MemberIDHeader)
				return
			}

			m, err := members.GetByID(r.Context(), id)
			if err != nil {
				logger.Error("look up acting member", "member_id", id, "error", err)
				writeError(w, http.StatusInternalServerError, "failed to identify member")
				return
			}
			if m == nil {
				writeError(w, http.StatusUnauthorized, "unknown member")
				return
			}

			if m.HasPIN {
				key := fmt.Sprintf("pin:%d", m.ID)
				if limiter.Blocked(key, pinFailureLimit) {
					setRetryAfter(w, limiter.RetryAfter(key))
					writeError(w, http.StatusTooManyRequests, "too many incorrect PIN attempts")
					return
				}
				hash, err := members.GetPINHash(r.Context(), m.ID)
				if err != nil {
					logger.Error("load member PIN", "member_id", m.ID, "error", err)
					writeError(w, http.StatusInternalServerError, "failed to verify PIN")
					return
				}
				pin := r.Header.Get(MemberPINHeader)
				if pin == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) != nil {
					limiter.Allow(key, pinFailureLimit, pinFailureWindow)
					logger.Warn("incorrect member PIN", "member_id", m.ID, "remote", RealIP(r))
					writeError(w, http.StatusUnauthorized, "incorrect PIN")
					return
				}
				limiter.Reset(key)
			}

			actor := auth.ActorFromMember(m)
			if slot, ok := r.Context().Value(actorSlotKey{}).(*auth.Actor); ok {
				*slot = actor
			}
			next.ServeHTTP(w, r.WithContext(auth.WithActor(r.Context(), actor)))
		})
	}
}

// RequireAdmin checks that the acting member has the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAdmin(r.Context()) {
			writeError(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
