package model

import (
	"strings"
	"time"
)

const (
	DownloadKindPaper         = "paper"
	DownloadKindMarkingScheme = "marking_scheme"
)

type Paper struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Year             int       `json:"year"`
	Description      *string   `json:"description"`
	PaperURL         *string   `json:"paper_url"`
	MarkingSchemeURL *string   `json:"marking_scheme_url"`
	CategoryID       string    `json:"category_id"`
	CategoryName     string    `json:"category_name,omitempty"` // joined, list and search views only
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// DownloadURL returns the link for the given kind, or "" when none is stored.
func (p *Paper) DownloadURL(kind string) string {
	var u *string
	switch kind {
	case DownloadKindPaper:
		u = p.PaperURL
	case DownloadKindMarkingScheme:
		u = p.MarkingSchemeURL
	}
	if u == nil {
		return ""
	}
	return *u
}

type PaperInput struct {
	Title            string `json:"title" validate:"required,max=300"`
	Year             int    `json:"year" validate:"gte=1900,lte=2100"`
	Description      string `json:"description" validate:"max=2000"`
	PaperURL         string `json:"paper_url" validate:"omitempty,url"`
	MarkingSchemeURL string `json:"marking_scheme_url" validate:"omitempty,url"`
	CategoryID       string `json:"category_id" validate:"required,uuid"`
	Precondition
}

func (in PaperInput) Normalized() PaperInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.PaperURL = strings.TrimSpace(in.PaperURL)
	in.MarkingSchemeURL = strings.TrimSpace(in.MarkingSchemeURL)
	in.CategoryID = strings.TrimSpace(in.CategoryID)
	return in
}
