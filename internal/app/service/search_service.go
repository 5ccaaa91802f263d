package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"paperarchive/internal/app/query"
	"paperarchive/internal/common"
	"paperarchive/internal/domain/model"
	"paperarchive/internal/domain/repository"
)

const maxSearchQueryLength = 100

// SearchService answers search-as-you-type. Identical queries share one
// backend call through the query cache, and a newer search from the same
// client cancels that client's previous one.
type SearchService struct {
	papers  repository.PaperRepository
	queries *query.Client
	limit   int

	mu       sync.Mutex
	inflight map[string]*searchTicket
}

type searchTicket struct {
	cancel context.CancelCauseFunc
}

func NewSearchService(papers repository.PaperRepository, queries *query.Client, limit int) *SearchService {
	if limit <= 0 {
		limit = 10
	}
	return &SearchService{
		papers:   papers,
		queries:  queries,
		limit:    limit,
		inflight: make(map[string]*searchTicket),
	}
}

// normalizeSearchQuery folds case only; surrounding spaces stay part of the
// substring being matched.
func normalizeSearchQuery(q string) string {
	return strings.ToLower(q)
}

// Search returns at most limit papers whose title or description contains q.
// An empty query returns no results without touching the backend. clientID
// may be empty, in which case nothing is superseded.
func (s *SearchService) Search(ctx context.Context, clientID, q string) ([]model.Paper, error) {
	if strings.TrimSpace(q) == "" {
		return []model.Paper{}, nil
	}
	term := normalizeSearchQuery(q)
	if utf8.RuneCountInString(term) > maxSearchQueryLength {
		return nil, fmt.Errorf("search query longer than %d characters: %w", maxSearchQueryLength, common.ErrBadRequest)
	}

	if clientID != "" {
		var done func()
		ctx, done = s.supersede(ctx, clientID)
		defer done()
	}

	results, err := query.Fetch(ctx, s.queries, query.NewKey("search", term), func(ctx context.Context) ([]model.Paper, error) {
		return s.papers.Search(ctx, term, s.limit)
	})
	if err != nil {
		if errors.Is(context.Cause(ctx), common.ErrSuperseded) {
			return nil, common.ErrSuperseded
		}
		return nil, fmt.Errorf("searching papers: %w", err)
	}
	return results, nil
}

// supersede cancels the client's running search and registers this one.
// The returned func unregisters it if it is still the latest.
func (s *SearchService) supersede(ctx context.Context, clientID string) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(ctx)
	ticket := &searchTicket{cancel: cancel}

	s.mu.Lock()
	if prev, ok := s.inflight[clientID]; ok {
		prev.cancel(common.ErrSuperseded)
	}
	s.inflight[clientID] = ticket
	s.mu.Unlock()

	return ctx, func() {
		s.mu.Lock()
		if s.inflight[clientID] == ticket {
			delete(s.inflight, clientID)
		}
		s.mu.Unlock()
		cancel(nil)
	}
}
