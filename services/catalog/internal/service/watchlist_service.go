package service

import (
	"context"
	"fmt"

	"github.com/diagnosis/cinelist/pkg/apperr"
	"github.com/diagnosis/cinelist/pkg/auth"
	"github.com/diagnosis/cinelist/pkg/logger"
	"github.com/diagnosis/cinelist/pkg/notifier"
	"github.com/diagnosis/cinelist/services/catalog/internal/domain"
	"github.com/diagnosis/cinelist/services/catalog/internal/repository"
)

type WatchlistService interface {
	Add(ctx context.Context, p *auth.Principal, movieID int64) (*domain.Movie, error)
	Remove(ctx context.Context, p *auth.Principal, movieID int64) error
	List(ctx context.Context, userID int64) ([]domain.WatchlistItem, error)
}

// MovieFinder returns (nil, nil) for unknown movies.
type MovieFinder interface {
	GetMovie(ctx context.Context, id int64) (*domain.Movie, error)
}

type watchlistService struct {
	movies   MovieFinder
	repo     repository.WatchlistRepository
	notifier notifier.Notifier
}

func NewWatchlistService(movies MovieFinder, repo repository.WatchlistRepository, n notifier.Notifier) WatchlistService {
	return &watchlistService{movies: movies, repo: repo, notifier: n}
}

func (s *watchlistService) movie(ctx context.Context, id int64) (*domain.Movie, error) {
	m, err := s.movies.GetMovie(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get movie: %w", err)
	}
	if m == nil {
		return nil, apperr.E(apperr.NotFound, "movie not found")
	}
	return m, nil
}

func (s *watchlistService) Add(ctx context.Context, p *auth.Principal, movieID int64) (*domain.Movie, error) {
	m, err := s.movie(ctx, movieID)
	if err != nil {
		return nil, err
	}

	added, err := s.repo.Add(ctx, p.UserID, movieID)
	if err != nil {
		return nil, fmt.Errorf("failed to add to watchlist: %w", err)
	}
	if !added {
		return nil, apperr.E(apperr.Conflict, "movie already in watchlist")
	}

	logger.InfoContext(ctx, "Watchlist entry added", "user_id", p.UserID, "movie_id", movieID)
	_ = s.notifier.Send(ctx, notifier.WatchlistAddedEmail(p.Email, m.Title))
	return m, nil
}

func (s *watchlistService) Remove(ctx context.Context, p *auth.Principal, movieID int64) error {
	m, err := s.movies.GetMovie(ctx, movieID)
	if err != nil {
		return fmt.Errorf("failed to get movie: %w", err)
	}
	if m == nil {
		return apperr.E(apperr.NotFound, "movie not in watchlist")
	}

	removed, err := s.repo.Remove(ctx, p.UserID, movieID)
	if err != nil {
		return fmt.Errorf("failed to remove from watchlist: %w", err)
	}
	if !removed {
		return apperr.E(apperr.NotFound, "movie not in watchlist")
	}

	logger.InfoContext(ctx, "Watchlist entry removed", "user_id", p.UserID, "movie_id", movieID)
	_ = s.notifier.Send(ctx, notifier.WatchlistRemovedEmail(p.Email, m.Title))
	return nil
}

func (s *watchlistService) List(ctx context.Context, userID int64) ([]domain.WatchlistItem, error) {
	items, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list watchlist: %w", err)
	}
	return items, nil
}
