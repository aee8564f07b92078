package domain

import (
	"strings"
	"time"

	"github.com/diagnosis/cinelist/pkg/apperr"
	"github.com/diagnosis/cinelist/pkg/validate"
)

const (
	MinRating = 1
	MaxRating = 10
)

type Review struct {
	ID       int64     `gorm:"primaryKey"`
	MovieID  int64     `gorm:"not null;index"`
	Movie    *Movie    `gorm:"foreignKey:MovieID;constraint:OnDelete:CASCADE"`
	Email    string    `gorm:"not null"`
	FullName string    `gorm:"not null;default:''"`
	Rating   float64   `gorm:"not null"`
	Comment  string    `gorm:"not null;default:''"`
	AddedAt  time.Time `gorm:"autoCreateTime"`
}

func (Review) TableName() string { return "reviews" }

type ReviewView struct {
	ID       int64     `json:"id"`
	MovieID  int64     `json:"movie_id"`
	Movie    string    `json:"movie,omitempty"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
	Rating   float64   `json:"rating"`
	Comment  string    `json:"comment"`
	AddedAt  time.Time `json:"added_at"`
}

// View shows the movie title in place of the movie object.
func (r *Review) View() *ReviewView {
	v := &ReviewView{
		ID:       r.ID,
		MovieID:  r.MovieID,
		Email:    r.Email,
		FullName: r.FullName,
		Rating:   r.Rating,
		Comment:  r.Comment,
		AddedAt:  r.AddedAt,
	}
	if r.Movie != nil {
		v.Movie = r.Movie.Title
	}
	return v
}

func ReviewViews(reviews []Review) []*ReviewView {
	out := make([]*ReviewView, len(reviews))
	for i := range reviews {
		out[i] = reviews[i].View()
	}
	return out
}

type ReviewRequest struct {
	MovieID  *int64   `json:"movie_id"`
	FullName *string  `json:"full_name"`
	Rating   *float64 `json:"rating"`
	Comment  *string  `json:"comment"`
}

func (r *ReviewRequest) Normalize() {
	if r.FullName != nil {
		n := strings.TrimSpace(*r.FullName)
		r.FullName = &n
	}
}

func (r *ReviewRequest) Validate(partial bool) error {
	if !partial {
		if r.MovieID == nil {
			return apperr.E(apperr.Validation, "movie_id is required")
		}
		if r.Rating == nil {
			return apperr.E(apperr.Validation, "rating is required")
		}
	}
	if r.MovieID != nil && *r.MovieID <= 0 {
		return apperr.E(apperr.Validation, "movie_id must be positive")
	}
	if r.Rating != nil {
		if err := validate.FloatRange("rating", *r.Rating, MinRating, MaxRating); err != nil {
			return err
		}
	}
	if r.FullName != nil {
		if err := validate.MaxLen("full_name", *r.FullName, 150); err != nil {
			return err
		}
	}
	return nil
}

// Apply copies set fields onto rv. The movie of an existing review never changes.
func (r *ReviewRequest) Apply(rv *Review) {
	if r.MovieID != nil && rv.ID == 0 {
		rv.MovieID = *r.MovieID
	}
	if r.FullName != nil {
		rv.FullName = *r.FullName
	}
	if r.Rating != nil {
		rv.Rating = *r.Rating
	}
	if r.Comment != nil {
		rv.Comment = *r.Comment
	}
}
