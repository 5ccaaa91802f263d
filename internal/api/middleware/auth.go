package middleware

import (
	"net/http"

	"paperarchive/internal/app/session"
	"paperarchive/internal/common"
	"paperarchive/internal/common/security"

	"github.com/go-chi/jwtauth/v5"
)

// ResolveSession turns the token verified by jwtauth.Verifier into a
// session.Session. A missing or invalid token yields an anonymous session;
// public routes keep working and the admin gate rejects it.
func ResolveSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := session.Anonymous()

		token, claims, err := jwtauth.FromContext(r.Context())
		if err == nil && token != nil {
			userID, idErr := security.GetUserIDFromClaims(claims)
			role, roleErr := security.GetUserRoleFromClaims(claims)
			if idErr == nil && roleErr == nil {
				s = session.ForUser(userID, security.GetEmailFromClaims(claims), role)
			}
		}

		next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), s)))
	})
}

// RequireAdmin is the admin gate: unresolved sessions are refused, anonymous
// callers get 401 and signed-in non-admins 403.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := session.FromContext(r.Context())
		switch {
		case s.Status == session.Loading:
			common.RespondWithError(w, http.StatusServiceUnavailable, "Session not resolved")
		case s.Status == session.Unauthenticated:
			common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
		case !s.IsAdmin():
			common.RespondWithError(w, http.StatusForbidden, "Admin access required")
		default:
			next.ServeHTTP(w, r)
		}
	})
}
