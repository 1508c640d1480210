package httpx

import (
	"context"
	"github.com/ariefcatur/go-realtime-store/internal/activity"
	"net/http"
	"strings"
)

const (
	HeaderActorID   = "X-Actor-Id"
	HeaderActorName = "X-Actor-Name"
	HeaderActorRole = "X-Actor-Role"
)

type actorKey struct{}

// ResolveActor reads the caller identity set by the gateway. The role is
// resolved here once; handlers only look at the result.
func ResolveActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(HeaderActorID))
		if id == "" {
			problem(w, http.StatusUnauthorized, "Unauthorized", "missing "+HeaderActorID, "")
			return
		}
		a := activity.Actor{
			ID:   id,
			Name: strings.TrimSpace(r.Header.Get(HeaderActorName)),
			Role: activity.ParseRole(r.Header.Get(HeaderActorRole)),
		}
		if a.Name == "" {
			a.Name = id
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey{}, a)))
	})
}

func ActorFrom(ctx context.Context) activity.Actor {
	a, _ := ctx.Value(actorKey{}).(activity.Actor)
	return a
}

func RequireStaff(next http.Handler) http.Handler {
	return requireRole(activity.Role.IsStaff, "helper or admin role required", next)
}

func RequireAdmin(next http.Handler) http.Handler {
	return requireRole(activity.Role.IsAdmin, "admin role required", next)
}

func requireRole(allowed func(activity.Role) bool, msg string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !allowed(ActorFrom(r.Context()).Role) {
			problem(w, http.StatusForbidden, "Forbidden", msg, "")
			return
		}
		next.ServeHTTP(w, r)
	})
}
