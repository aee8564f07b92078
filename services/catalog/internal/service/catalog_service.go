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

type CatalogService interface {
	ListMovies(ctx context.Context, filter domain.MovieFilter) ([]domain.Movie, error)
	GetMovie(ctx context.Context, id int64) (*domain.Movie, error)
	CreateMovie(ctx context.Context, req *domain.MovieRequest) (*domain.Movie, error)
	UpdateMovie(ctx context.Context, id int64, req *domain.MovieRequest, partial bool) (*domain.Movie, error)
	DeleteMovie(ctx context.Context, id int64) error

	ListPlatforms(ctx context.Context, search string) ([]domain.Platform, error)
	GetPlatform(ctx context.Context, id int64) (*domain.Platform, error)
	CreatePlatform(ctx context.Context, req *domain.PlatformRequest) (*domain.Platform, error)
	UpdatePlatform(ctx context.Context, id int64, req *domain.PlatformRequest, partial bool) (*domain.Platform, error)
	DeletePlatform(ctx context.Context, id int64) error

	ListReviews(ctx context.Context, movieID int64) ([]domain.Review, error)
	CreateReview(ctx context.Context, p *auth.Principal, req *domain.ReviewRequest) (*domain.Review, error)
	UpdateReview(ctx context.Context, p *auth.Principal, id int64, req *domain.ReviewRequest, partial bool) (*domain.Review, error)
	DeleteReview(ctx context.Context, p *auth.Principal, id int64) error
}

type catalogService struct {
	repo     repository.CatalogRepository
	notifier notifier.Notifier
}

func NewCatalogService(repo repository.CatalogRepository, n notifier.Notifier) CatalogService {
	return &catalogService{repo: repo, notifier: n}
}

func (s *catalogService) ListMovies(ctx context.Context, filter domain.MovieFilter) ([]domain.Movie, error) {
	movies, err := s.repo.ListMovies(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}
	return movies, nil
}

func (s *catalogService) GetMovie(ctx context.Context, id int64) (*domain.Movie, error) {
	m, err := s.repo.GetMovie(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get movie: %w", err)
	}
	if m == nil {
		return nil, apperr.E(apperr.NotFound, "movie not found")
	}
	return m, nil
}

func (s *catalogService) CreateMovie(ctx context.Context, req *domain.MovieRequest) (*domain.Movie, error) {
	req.Normalize()
	if err := req.Validate(false); err != nil {
		return nil, err
	}
	if err := s.requirePlatform(ctx, *req.PlatformID); err != nil {
		return nil, err
	}

	m := req.NewMovie()
	if err := s.repo.CreateMovie(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to create movie: %w", err)
	}

	logger.InfoContext(ctx, "Movie created", "movie_id", m.ID, "platform_id", m.PlatformID)
	return s.GetMovie(ctx, m.ID)
}

func (s *catalogService) UpdateMovie(ctx context.Context, id int64, req *domain.MovieRequest, partial bool) (*domain.Movie, error) {
	req.Normalize()
	if err := req.Validate(partial); err != nil {
		return nil, err
	}

	m, err := s.GetMovie(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.PlatformID != nil && *req.PlatformID != m.PlatformID {
		if err := s.requirePlatform(ctx, *req.PlatformID); err != nil {
			return nil, err
		}
	}

	req.Apply(m)
	if err := s.repo.UpdateMovie(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to update movie: %w", err)
	}
	return s.GetMovie(ctx, id)
}

func (s *catalogService) DeleteMovie(ctx context.Context, id int64) error {
	deleted, err := s.repo.DeleteMovie(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete movie: %w", err)
	}
	if !deleted {
		return apperr.E(apperr.NotFound, "movie not found")
	}
	return nil
}

func (s *catalogService) requirePlatform(ctx context.Context, id int64) error {
	p, err := s.repo.GetPlatform(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get platform: %w", err)
	}
	if p == nil {
		return apperr.Ef(apperr.Validation, "platform %d does not exist", id)
	}
	return nil
}

func (s *catalogService) ListPlatforms(ctx context.Context, search string) ([]domain.Platform, error) {
	platforms, err := s.repo.ListPlatforms(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("failed to list platforms: %w", err)
	}
	return platforms, nil
}

func (s *catalogService) GetPlatform(ctx context.Context, id int64) (*domain.Platform, error) {
	p, err := s.repo.GetPlatform(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get platform: %w", err)
	}
	if p == nil {
		return nil, apperr.E(apperr.NotFound, "platform not found")
	}
	return p, nil
}

func (s *catalogService) CreatePlatform(ctx context.Context, req *domain.PlatformRequest) (*domain.Platform, error) {
	req.Normalize()
	if err := req.Validate(false); err != nil {
		return nil, err
	}

	p := &domain.Platform{}
	req.Apply(p)
	if err := s.repo.CreatePlatform(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create platform: %w", err)
	}
	return p, nil
}

func (s *catalogService) UpdatePlatform(ctx context.Context, id int64, req *domain.PlatformRequest, partial bool) (*domain.Platform, error) {
	req.Normalize()
	if err := req.Validate(partial); err != nil {
		return nil, err
	}

	p, err := s.GetPlatform(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Apply(p)
	if err := s.repo.UpdatePlatform(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update platform: %w", err)
	}
	return p, nil
}

func (s *catalogService) DeletePlatform(ctx context.Context, id int64) error {
	deleted, err := s.repo.DeletePlatform(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete platform: %w", err)
	}
	if !deleted {
		return apperr.E(apperr.NotFound, "platform not found")
	}
	return nil
}

func (s *catalogService) ListReviews(ctx context.Context, movieID int64) ([]domain.Review, error) {
	if _, err := s.GetMovie(ctx, movieID); err != nil {
		return nil, err
	}
	reviews, err := s.repo.ListReviews(ctx, movieID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

func (s *catalogService) CreateReview(ctx context.Context, p *auth.Principal, req *domain.ReviewRequest) (*domain.Review, error) {
	req.Normalize()
	if err := req.Validate(false); err != nil {
		return nil, err
	}

	m, err := s.repo.GetMovie(ctx, *req.MovieID)
	if err != nil {
		return nil, fmt.Errorf("failed to get movie: %w", err)
	}
	if m == nil {
		return nil, apperr.Ef(apperr.Validation, "movie %d does not exist", *req.MovieID)
	}

	rv := &domain.Review{Email: p.Email}
	req.Apply(rv)
	if err := s.repo.CreateReview(ctx, rv); err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	rv.Movie = m

	// Don't fail the review if the email fails
	_ = s.notifier.Send(ctx, notifier.ReviewAddedEmail(p.Email, m.Title, rv.Rating))

	return rv, nil
}

func (s *catalogService) UpdateReview(ctx context.Context, p *auth.Principal, id int64, req *domain.ReviewRequest, partial bool) (*domain.Review, error) {
	req.Normalize()
	if err := req.Validate(partial); err != nil {
		return nil, err
	}

	rv, err := s.ownedReview(ctx, p, id)
	if err != nil {
		return nil, err
	}
	req.Apply(rv)
	if err := s.repo.UpdateReview(ctx, rv); err != nil {
		return nil, fmt.Errorf("failed to update review: %w", err)
	}
	return rv, nil
}

func (s *catalogService) DeleteReview(ctx context.Context, p *auth.Principal, id int64) error {
	if _, err := s.ownedReview(ctx, p, id); err != nil {
		return err
	}
	if _, err := s.repo.DeleteReview(ctx, id); err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	return nil
}

// ownedReview loads a review the principal may modify: its author or staff.
func (s *catalogService) ownedReview(ctx context.Context, p *auth.Principal, id int64) (*domain.Review, error) {
	rv, err := s.repo.GetReview(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	if rv == nil {
		return nil, apperr.E(apperr.NotFound, "review not found")
	}
	if !p.IsStaff && rv.Email != p.Email {
		return nil, apperr.E(apperr.Forbidden, "you can only modify your own reviews")
	}
	return rv, nil
}
