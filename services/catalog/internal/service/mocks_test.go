package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/diagnosis/cinelist/pkg/notifier"
	"github.com/diagnosis/cinelist/services/catalog/internal/domain"
)

// mockCatalogRepo keeps rows in maps and derives ratings like the real store.
type mockCatalogRepo struct {
	movies    map[int64]*domain.Movie
	platforms map[int64]*domain.Platform
	reviews   map[int64]*domain.Review
	nextID    int64
	err       error
}

func newMockCatalogRepo() *mockCatalogRepo {
	return &mockCatalogRepo{
		movies:    map[int64]*domain.Movie{},
		platforms: map[int64]*domain.Platform{},
		reviews:   map[int64]*domain.Review{},
		nextID:    100,
	}
}

func (m *mockCatalogRepo) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *mockCatalogRepo) withRating(mv domain.Movie) domain.Movie {
	var sum float64
	n := 0
	for _, rv := range m.reviews {
		if rv.MovieID == mv.ID {
			sum += rv.Rating
			n++
		}
	}
	mv.Rating = domain.DefaultRating
	if n > 0 {
		mv.Rating = sum / float64(n)
	}
	if p, ok := m.platforms[mv.PlatformID]; ok {
		mv.Platform = &domain.Platform{ID: p.ID, Name: p.Name, URL: p.URL}
	}
	return mv
}

func (m *mockCatalogRepo) ListMovies(_ context.Context, f domain.MovieFilter) ([]domain.Movie, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Movie
	for _, mv := range m.movies {
		if f.PlatformID != nil && mv.PlatformID != *f.PlatformID {
			continue
		}
		if f.Active != nil && mv.Active != *f.Active {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(mv.Title), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, m.withRating(*mv))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockCatalogRepo) GetMovie(_ context.Context, id int64) (*domain.Movie, error) {
	if m.err != nil {
		return nil, m.err
	}
	mv, ok := m.movies[id]
	if !ok {
		return nil, nil
	}
	out := m.withRating(*mv)
	return &out, nil
}

func (m *mockCatalogRepo) CreateMovie(_ context.Context, mv *domain.Movie) error {
	mv.ID = m.id()
	cp := *mv
	m.movies[mv.ID] = &cp
	return nil
}

func (m *mockCatalogRepo) UpdateMovie(_ context.Context, mv *domain.Movie) error {
	cp := *mv
	cp.Platform = nil
	m.movies[mv.ID] = &cp
	return nil
}

func (m *mockCatalogRepo) DeleteMovie(_ context.Context, id int64) (bool, error) {
	if _, ok := m.movies[id]; !ok {
		return false, nil
	}
	delete(m.movies, id)
	return true, nil
}

func (m *mockCatalogRepo) ListPlatforms(_ context.Context, search string) ([]domain.Platform, error) {
	var out []domain.Platform
	for _, p := range m.platforms {
		if search == "" || strings.Contains(strings.ToLower(p.Name), strings.ToLower(search)) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockCatalogRepo) GetPlatform(_ context.Context, id int64) (*domain.Platform, error) {
	p, ok := m.platforms[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *mockCatalogRepo) CreatePlatform(_ context.Context, p *domain.Platform) error {
	p.ID = m.id()
	cp := *p
	m.platforms[p.ID] = &cp
	return nil
}

func (m *mockCatalogRepo) UpdatePlatform(_ context.Context, p *domain.Platform) error {
	cp := *p
	m.platforms[p.ID] = &cp
	return nil
}

func (m *mockCatalogRepo) DeletePlatform(_ context.Context, id int64) (bool, error) {
	if _, ok := m.platforms[id]; !ok {
		return false, nil
	}
	delete(m.platforms, id)
	return true, nil
}

func (m *mockCatalogRepo) ListReviews(_ context.Context, movieID int64) ([]domain.Review, error) {
	var out []domain.Review
	for _, rv := range m.reviews {
		if rv.MovieID == movieID {
			out = append(out, *rv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockCatalogRepo) GetReview(_ context.Context, id int64) (*domain.Review, error) {
	rv, ok := m.reviews[id]
	if !ok {
		return nil, nil
	}
	cp := *rv
	return &cp, nil
}

func (m *mockCatalogRepo) CreateReview(_ context.Context, rv *domain.Review) error {
	rv.ID = m.id()
	cp := *rv
	m.reviews[rv.ID] = &cp
	return nil
}

func (m *mockCatalogRepo) UpdateReview(_ context.Context, rv *domain.Review) error {
	cp := *rv
	m.reviews[rv.ID] = &cp
	return nil
}

func (m *mockCatalogRepo) DeleteReview(_ context.Context, id int64) (bool, error) {
	if _, ok := m.reviews[id]; !ok {
		return false, nil
	}
	delete(m.reviews, id)
	return true, nil
}

type entry struct{ userID, movieID int64 }

// mockWatchlistRepo enforces the (user, movie) uniqueness of the real table.
type mockWatchlistRepo struct {
	mu      sync.Mutex
	entries []entry
	err     error
}

func (m *mockWatchlistRepo) Add(_ context.Context, userID, movieID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	for _, e := range m.entries {
		if e.userID == userID && e.movieID == movieID {
			return false, nil
		}
	}
	m.entries = append(m.entries, entry{userID, movieID})
	return true, nil
}

func (m *mockWatchlistRepo) Remove(_ context.Context, userID, movieID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.entries {
		if e.userID == userID && e.movieID == movieID {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *mockWatchlistRepo) List(_ context.Context, userID int64) ([]domain.WatchlistItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := []domain.WatchlistItem{}
	for i, e := range m.entries {
		if e.userID == userID {
			items = append(items, domain.WatchlistItem{ID: int64(i + 1), MovieID: e.movieID})
		}
	}
	return items, nil
}

func (m *mockWatchlistRepo) count(userID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if e.userID == userID {
			n++
		}
	}
	return n
}

type captureNotifier struct {
	mu   sync.Mutex
	sent []notifier.Message
}

func (c *captureNotifier) Send(_ context.Context, msg notifier.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
	return nil
}

func (c *captureNotifier) messages() []notifier.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]notifier.Message(nil), c.sent...)
}

func ptr[T any](v T) *T { return &v }

// seed adds platform 1 (Netflix) and movie 5 (The Matrix).
func seed(repo *mockCatalogRepo) {
	repo.platforms[1] = &domain.Platform{ID: 1, Name: "Netflix", URL: "https://netflix.com"}
	repo.movies[5] = &domain.Movie{ID: 5, Title: "The Matrix", Active: true, PlatformID: 1}
}
