package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"paperarchive/internal/common"
	"paperarchive/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSearch(t *testing.T, f *fixture) {
	t.Helper()
	ctx := context.Background()
	maths, err := f.categories.Create(ctx, model.CategoryInput{Name: "Mathematics"})
	require.NoError(t, err)
	for i, title := range []string{"Algebra I", "Algebra II", "Geometry", "Mechanics"} {
		_, err := f.papers.PaperRepository.Create(ctx, model.PaperInput{Title: title, Year: 2010 + i, CategoryID: maths.ID})
		require.NoError(t, err)
	}
}

func TestSearchEmptyQueryMakesNoBackendCall(t *testing.T) {
	f := newFixture()
	s := NewSearchService(f.papers, f.deps.Queries, 10)

	for _, q := range []string{"", "   ", "\t"} {
		results, err := s.Search(context.Background(), "tab-1", q)
		require.NoError(t, err)
		assert.NotNil(t, results)
		assert.Empty(t, results)
	}
	assert.Empty(t, f.papers.searchCalls())
}

func TestSearchRejectsLongQueries(t *testing.T) {
	f := newFixture()
	s := NewSearchService(f.papers, f.deps.Queries, 10)

	_, err := s.Search(context.Background(), "", strings.Repeat("é", 101))
	assert.ErrorIs(t, err, common.ErrBadRequest)
	assert.Empty(t, f.papers.searchCalls())

	_, err = s.Search(context.Background(), "", strings.Repeat("é", 100))
	assert.NoError(t, err)
}

func TestSearchMatchesAndCaches(t *testing.T) {
	f := newFixture()
	seedSearch(t, f)
	s := NewSearchService(f.papers, f.deps.Queries, 10)
	ctx := context.Background()

	results, err := s.Search(ctx, "tab-1", "ALGEBRA")
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, p := range results {
		assert.Contains(t, strings.ToLower(p.Title), "algebra")
		assert.Equal(t, "Mathematics", p.CategoryName)
		assert.NotEmpty(t, p.CategoryID)
	}

	_, err = s.Search(ctx, "tab-2", "algebra")
	require.NoError(t, err)
	assert.Equal(t, []string{"algebra"}, f.papers.searchCalls(), "queries differing in case share one backend call")
}

func TestSearchKeepsSurroundingSpaces(t *testing.T) {
	f := newFixture()
	seedSearch(t, f)
	s := NewSearchService(f.papers, f.deps.Queries, 10)
	ctx := context.Background()

	spaced, err := s.Search(ctx, "", " I")
	require.NoError(t, err)
	titles := []string{}
	for _, p := range spaced {
		titles = append(titles, p.Title)
	}
	assert.ElementsMatch(t, []string{"Algebra I", "Algebra II"}, titles)

	bare, err := s.Search(ctx, "", "I")
	require.NoError(t, err)
	assert.Len(t, bare, 3, "Mechanics matches once the space is gone")
	assert.Equal(t, []string{" i", "i"}, f.papers.searchCalls())
}

func TestSearchHonoursLimit(t *testing.T) {
	f := newFixture()
	seedSearch(t, f)
	s := NewSearchService(f.papers, f.deps.Queries, 2)

	results, err := s.Search(context.Background(), "", "e")
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestNewerSearchSupersedesOlder(t *testing.T) {
	f := newFixture()
	seedSearch(t, f)
	release := make(chan struct{})
	f.papers.block = map[string]chan struct{}{"alg": release}
	f.papers.searching = make(chan string, 4)
	s := NewSearchService(f.papers, f.deps.Queries, 10)
	ctx := context.Background()

	type outcome struct {
		results []model.Paper
		err     error
	}
	first := make(chan outcome, 1)
	go func() {
		results, err := s.Search(ctx, "tab-1", "alg")
		first <- outcome{results, err}
	}()

	select {
	case term := <-f.papers.searching:
		require.Equal(t, "alg", term)
	case <-time.After(time.Second):
		t.Fatal("first search never reached the backend")
	}

	results, err := s.Search(ctx, "tab-1", "alge")
	require.NoError(t, err)
	assert.Len(t, results, 2)

	select {
	case out := <-first:
		assert.ErrorIs(t, out.err, common.ErrSuperseded)
		assert.Nil(t, out.results)
	case <-time.After(time.Second):
		t.Fatal("superseded search did not return")
	}
	close(release)
}

func TestSearchesFromDifferentClientsDoNotInterfere(t *testing.T) {
	f := newFixture()
	seedSearch(t, f)
	s := NewSearchService(f.papers, f.deps.Queries, 10)
	ctx := context.Background()

	a, err := s.Search(ctx, "tab-1", "geometry")
	require.NoError(t, err)
	b, err := s.Search(ctx, "tab-2", "mechanics")
	require.NoError(t, err)
	assert.Len(t, a, 1)
	assert.Len(t, b, 1)
}
