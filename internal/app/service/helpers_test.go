package service

import (
	"context"
	"sync"
	"time"

	"paperarchive/internal/app/inflight"
	"paperarchive/internal/app/query"
	"paperarchive/internal/common"
	"paperarchive/internal/domain/model"
	"paperarchive/internal/domain/repository"
	"paperarchive/internal/domain/repository/inmem"

	"go.uber.org/zap"
)

type fixture struct {
	db            *inmem.DB
	deps          Deps
	categories    *spyCategories
	papers        *spyPapers
	notifications repository.NotificationRepository
	recounts      *recordingScheduler
}

func newFixture() *fixture {
	db := inmem.Open()
	queries := query.NewClient(query.NewMemoryStore(), query.Options{
		StaleTime:    time.Minute,
		FetchTimeout: time.Second,
	}, zap.NewNop())
	return &fixture{
		db: db,
		deps: Deps{
			Queries:   queries,
			Guard:     inflight.NewMemoryGuard(),
			Validator: common.NewValidator(),
			Log:       zap.NewNop(),
		},
		categories:    &spyCategories{CategoryRepository: inmem.NewCategoryRepository(db)},
		papers:        &spyPapers{PaperRepository: inmem.NewPaperRepository(db)},
		notifications: inmem.NewNotificationRepository(db),
		recounts:      &recordingScheduler{},
	}
}

// spyCategories counts backend calls made through the category repository.
type spyCategories struct {
	repository.CategoryRepository
	mu     sync.Mutex
	lists  int
	writes int
}

func (s *spyCategories) List(ctx context.Context) ([]model.Category, error) {
	s.mu.Lock()
	s.lists++
	s.mu.Unlock()
	return s.CategoryRepository.List(ctx)
}

func (s *spyCategories) Create(ctx context.Context, in model.CategoryInput) (*model.Category, error) {
	s.mu.Lock()
	s.writes++
	s.mu.Unlock()
	return s.CategoryRepository.Create(ctx, in)
}

func (s *spyCategories) Update(ctx context.Context, id string, in model.CategoryInput) (*model.Category, error) {
	s.mu.Lock()
	s.writes++
	s.mu.Unlock()
	return s.CategoryRepository.Update(ctx, id, in)
}

func (s *spyCategories) calls() (lists, writes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lists, s.writes
}

type spyPapers struct {
	repository.PaperRepository
	mu       sync.Mutex
	searches []string
	writes   int
	// block, when set, holds Search calls for that term until the channel closes.
	block     map[string]chan struct{}
	searching chan string
}

func (s *spyPapers) Search(ctx context.Context, term string, limit int) ([]model.Paper, error) {
	s.mu.Lock()
	s.searches = append(s.searches, term)
	wait := s.block[term]
	started := s.searching
	s.mu.Unlock()

	if started != nil {
		started <- term
	}
	if wait != nil {
		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.PaperRepository.Search(ctx, term, limit)
}

func (s *spyPapers) Create(ctx context.Context, in model.PaperInput) (*model.Paper, error) {
	s.mu.Lock()
	s.writes++
	s.mu.Unlock()
	return s.PaperRepository.Create(ctx, in)
}

func (s *spyPapers) searchCalls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.searches...)
}

type recordingScheduler struct {
	mu  sync.Mutex
	ids []string
}

func (r *recordingScheduler) Push(_ context.Context, ids ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, ids...)
	return nil
}

func (r *recordingScheduler) pushed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}
