package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diagnosis/cinelist/pkg/apperr"
	"github.com/diagnosis/cinelist/pkg/database"
	"github.com/diagnosis/cinelist/services/catalog/internal/domain"
)

type WatchlistRepository interface {
	// Add reports false when the movie is already on the user's list. A movie
	// deleted concurrently yields an apperr.NotFound.
	Add(ctx context.Context, userID, movieID int64) (bool, error)
	// Remove reports whether an entry was deleted.
	Remove(ctx context.Context, userID, movieID int64) (bool, error)
	List(ctx context.Context, userID int64) ([]domain.WatchlistItem, error)
}

type watchlistRepository struct {
	pool *pgxpool.Pool
}

func NewWatchlistRepository(pool *pgxpool.Pool) WatchlistRepository {
	return &watchlistRepository{pool: pool}
}

func (r *watchlistRepository) Add(ctx context.Context, userID, movieID int64) (bool, error) {
	const q = `
		INSERT INTO watchlist (user_id, movie_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, movie_id) DO NOTHING
		RETURNING id`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var id int64
	err := r.pool.QueryRow(ctx, q, userID, movieID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if database.IsForeignKeyViolation(err) {
		return false, apperr.Wrap(apperr.NotFound, "movie not found", err)
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *watchlistRepository) Remove(ctx context.Context, userID, movieID int64) (bool, error) {
	const q = `DELETE FROM watchlist WHERE user_id = $1 AND movie_id = $2`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, userID, movieID)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (r *watchlistRepository) List(ctx context.Context, userID int64) ([]domain.WatchlistItem, error) {
	const q = `
		SELECT w.id, m.id, m.title, p.name, m.active, w.added_on,
			COALESCE((SELECT AVG(rv.rating) FROM reviews rv WHERE rv.movie_id = m.id), $2)
		FROM watchlist w
		JOIN movies m ON m.id = w.movie_id
		JOIN platforms p ON p.id = m.platform_id
		WHERE w.user_id = $1
		ORDER BY w.id`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, userID, domain.DefaultRating)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.WatchlistItem{}
	for rows.Next() {
		var it domain.WatchlistItem
		if err := rows.Scan(&it.ID, &it.MovieID, &it.Title, &it.Platform, &it.Active, &it.AddedOn, &it.Rating); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
