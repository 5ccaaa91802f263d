package model

import (
	"strings"
	"time"
)

type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	IsRead    *bool     `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Unread treats a missing read flag as unread.
func (n *Notification) Unread() bool {
	return n.IsRead == nil || !*n.IsRead
}

type NotificationInput struct {
	Title   string `json:"title" validate:"required,max=200"`
	Message string `json:"message" validate:"required,max=5000"`
	Precondition
}

func (in NotificationInput) Normalized() NotificationInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Message = strings.TrimSpace(in.Message)
	return in
}

// NotificationFeed is what the public bell dropdown shows.
type NotificationFeed struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unread_count"`
}
