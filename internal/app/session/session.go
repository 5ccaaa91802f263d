// Package session models who is calling: a request is either still being
// resolved, authenticated with a role, or anonymous.
package session

import (
	"context"
	"encoding/json"

	"paperarchive/internal/domain/model"
)

type Status int

const (
	// Loading is the zero value: the request has not been resolved yet.
	Loading Status = iota
	Authenticated
	Unauthenticated
)

func (s Status) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "loading"
	}
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Session carries UserID, Email and Role only when Status is Authenticated.
type Session struct {
	Status Status `json:"status"`
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
}

func Anonymous() Session {
	return Session{Status: Unauthenticated}
}

func ForUser(userID, email, role string) Session {
	return Session{Status: Authenticated, UserID: userID, Email: email, Role: role}
}

func (s Session) IsAdmin() bool {
	return s.Status == Authenticated && s.Role == model.RoleAdmin
}

// MarshalJSON adds the is_admin flag clients gate their admin screens on.
func (s Session) MarshalJSON() ([]byte, error) {
	type plain Session
	return json.Marshal(struct {
		plain
		IsAdmin bool `json:"is_admin"`
	}{plain: plain(s), IsAdmin: s.IsAdmin()})
}

type ctxKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the resolved session, or a Loading one if none was stored.
func FromContext(ctx context.Context) Session {
	s, _ := ctx.Value(ctxKey{}).(Session)
	return s
}
