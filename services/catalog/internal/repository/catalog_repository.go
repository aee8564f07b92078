package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/diagnosis/cinelist/pkg/apperr"
	"github.com/diagnosis/cinelist/pkg/database"
	"github.com/diagnosis/cinelist/services/catalog/internal/domain"
)

// CatalogRepository stores movies, platforms and reviews. Lookups return
// (nil, nil) when the row does not exist.
type CatalogRepository interface {
	ListMovies(ctx context.Context, filter domain.MovieFilter) ([]domain.Movie, error)
	GetMovie(ctx context.Context, id int64) (*domain.Movie, error)
	CreateMovie(ctx context.Context, m *domain.Movie) error
	UpdateMovie(ctx context.Context, m *domain.Movie) error
	DeleteMovie(ctx context.Context, id int64) (bool, error)

	ListPlatforms(ctx context.Context, search string) ([]domain.Platform, error)
	GetPlatform(ctx context.Context, id int64) (*domain.Platform, error)
	CreatePlatform(ctx context.Context, p *domain.Platform) error
	UpdatePlatform(ctx context.Context, p *domain.Platform) error
	DeletePlatform(ctx context.Context, id int64) (bool, error)

	ListReviews(ctx context.Context, movieID int64) ([]domain.Review, error)
	GetReview(ctx context.Context, id int64) (*domain.Review, error)
	CreateReview(ctx context.Context, rv *domain.Review) error
	UpdateReview(ctx context.Context, rv *domain.Review) error
	DeleteReview(ctx context.Context, id int64) (bool, error)
}

type catalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) withTimeout(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	return r.db.WithContext(ctx), cancel
}

func (r *catalogRepository) ListMovies(ctx context.Context, filter domain.MovieFilter) ([]domain.Movie, error) {
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	q := db.Preload("Platform").Order("movies.id")
	if filter.PlatformID != nil {
		q = q.Where("platform_id = ?", *filter.PlatformID)
	}
	if filter.Active != nil {
		q = q.Where("active = ?", *filter.Active)
	}
	if filter.Search != "" {
		q = q.Where(`title ILIKE ? ESCAPE '\'`, containsPattern(filter.Search))
	}

	var movies []domain.Movie
	if err := q.Find(&movies).Error; err != nil {
		return nil, err
	}
	if err := attachRatings(db, movies); err != nil {
		return nil, err
	}
	return movies, nil
}

func (r *catalogRepository) GetMovie(ctx context.Context, id int64) (*domain.Movie, error) {
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	var m domain.Movie
	err := db.Preload("Platform").First(&m, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	movies := []domain.Movie{m}
	if err := attachRatings(db, movies); err != nil {
		return nil, err
	}
	return &movies[0], nil
}

func (r *catalogRepository) CreateMovie(ctx context.Context, m *domain.Movie) error {
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	// Omit associations so a preloaded Platform is never upserted.
	if err := db.Omit("Platform", "Reviews").Create(m).Error; err != nil {
		return err
	}
	m.Rating = domain.DefaultRating
	return nil
}

func (r *catalogRepository) UpdateMovie(ctx context.Context, m *domain.Movie) error {
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	return db.Model(m).Omit("Platform", "Reviews").
		Select("title", "description", "release_date", "active", "platform_id", "updated_at").
		Updates(m).Error
}

func (r *catalogRepository) DeleteMovie(ctx context.Context, id int64) (bool, error) {
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	res := db.Delete(&domain.Movie{}, id)
	return res.RowsAffected > 0, res.Error
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern matches term literally anywhere in the column.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

func (r *catalogRepository) ListPlatforms(ctx context.Context, search string) ([]domain.Platform, error) {
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	q := db.Preload("Movies", func(tx *gorm.DB) *gorm.DB { return tx.Order("movies.id") }).Order("platforms.id")
	if search != "" {
		q = q.Where(`name ILIKE ? ESCAPE '\'`, containsPattern(search))
	}

	var platforms []domain.Platform
	if err := q.Find(&platforms).Error; err != nil {
		return nil, err
	}
	return platforms, nil
}

func (r *catalogRepository) GetPlatform(ctx context.Context, id int64) (*domain.Platform, error) {
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	var p domain.Platform
	err := db.Preload("Movies", func(tx *gorm.DB) *gorm.DB { return tx.Order("movies.id") }).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *catalogRepository) CreatePlatform(ctx context.Context, p *domain.Platform) error {
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	return platformError(db.Omit("Movies").Create(p).Error)
}

func (r *catalogRepository) UpdatePlatform(ctx context.Context, p *domain.Platform) error {
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	return platformError(db.Model(p).Select("name", "url").Updates(p).Error)
}

func (r *catalogRepository) DeletePlatform(ctx context.Context, id int64) (bool, error) {
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	res := db.Delete(&domain.Platform{}, id)
	return res.RowsAffected > 0, res.Error
}

func (r *catalogRepository) ListReviews(ctx context.Context, movieID int64) ([]domain.Review, error) {
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	var reviews []domain.Review
	err := db.Preload("Movie").Where("movie_id = ?", movieID).Order("reviews.id").Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *catalogRepository) GetReview(ctx context.Context, id int64) (*domain.Review, error) {
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	var rv domain.Review
	err := db.Preload("Movie").First(&rv, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *catalogRepository) CreateReview(ctx context.Context, rv *domain.Review) error {
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	return db.Omit("Movie").Create(rv).Error
}

func (r *catalogRepository) UpdateReview(ctx context.Context, rv *domain.Review) error {
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	return db.Model(rv).Select("full_name", "rating", "comment").Updates(rv).Error
}

func (r *catalogRepository) DeleteReview(ctx context.Context, id int64) (bool, error) {
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	res := db.Delete(&domain.Review{}, id)
	return res.RowsAffected > 0, res.Error
}

type movieRating struct {
	MovieID int64
	Avg     float64
}

// attachRatings sets Rating on each movie from its reviews in one query.
func attachRatings(db *gorm.DB, movies []domain.Movie) error {
	if len(movies) == 0 {
		return nil
	}
	ids := make([]int64, len(movies))
	for i, m := range movies {
		ids[i] = m.ID
	}

	var rows []movieRating
	err := db.Model(&domain.Review{}).
		Select("movie_id, AVG(rating) AS avg").
		Where("movie_id IN ?", ids).
		Group("movie_id").
		Scan(&rows).Error
	if err != nil {
		return err
	}

	avg := make(map[int64]float64, len(rows))
	for _, row := range rows {
		avg[row.MovieID] = row.Avg
	}
	for i := range movies {
		if v, ok := avg[movies[i].ID]; ok {
			movies[i].Rating = v
		} else {
			movies[i].Rating = domain.DefaultRating
		}
	}
	return nil
}

func platformError(err error) error {
	if err == nil || !database.IsUniqueViolation(err) {
		return err
	}
	switch database.ConstraintName(err) {
	case "platforms_url_key":
		return apperr.E(apperr.Validation, "platform with this url already exists")
	default:
		return apperr.E(apperr.Validation, "platform with this name already exists")
	}
}
