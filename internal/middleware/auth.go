package middleware

import (
	"context"
	"net/http"

	"github.com/hazelquimpo21/fam-app-sub002/internal/models"
	"github.com/hazelquimpo21/fam-app-sub002/internal/services"
)

type contextKey string

const MemberContextKey contextKey = "member"

func RequireAuth(authService *services.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			member, err := authService.GetCurrentMember(r)
			if err != nil {
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}

			ctx := context.WithValue(r.Context(), MemberContextKey, member)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetMember(ctx context.Context) models.Member {
	member, _ := ctx.Value(MemberContextKey).(models.Member)
	return member
}
