package model

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a locally managed account, used when the hosted auth provider is not configured.
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"` // Not exposed
	CreatedAt      time.Time `json:"created_at"`
}

// Identity is who an auth provider says the caller is.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// Stats backs the admin dashboard cards.
type Stats struct {
	Categories    int `json:"categories"`
	Papers        int `json:"papers"`
	Notifications int `json:"notifications"`
}
