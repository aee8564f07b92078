package domain

import (
	"strings"
	"time"

	"github.com/diagnosis/cinelist/pkg/apperr"
	"github.com/diagnosis/cinelist/pkg/validate"
)

// DefaultRating is reported for movies without reviews.
const DefaultRating = 3.5

const dateLayout = "2006-01-02"

type Movie struct {
	ID          int64      `gorm:"primaryKey"`
	Title       string     `gorm:"size:100;not null"`
	Description string     `gorm:"not null;default:''"`
	ReleaseDate *time.Time `gorm:"type:date"`
	Active      bool       `gorm:"not null"`
	PlatformID  int64      `gorm:"not null;index"`
	Platform    *Platform  `gorm:"foreignKey:PlatformID;constraint:OnDelete:CASCADE"`
	Reviews     []Review   `gorm:"foreignKey:MovieID"`
	AddedAt     time.Time  `gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime"`

	// Rating is derived from reviews and never stored.
	Rating float64 `gorm:"-"`
}

func (Movie) TableName() string { return "movies" }

type MovieView struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ReleaseDate string    `json:"release_date,omitempty"`
	Active      bool      `json:"active"`
	PlatformID  int64     `json:"platform_id"`
	Platform    string    `json:"platform,omitempty"`
	Rating      float64   `json:"rating"`
	AddedAt     time.Time `json:"added_at"`
}

func (m *Movie) View() *MovieView {
	v := &MovieView{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Active:      m.Active,
		PlatformID:  m.PlatformID,
		Rating:      m.Rating,
		AddedAt:     m.AddedAt,
	}
	if m.ReleaseDate != nil {
		v.ReleaseDate = m.ReleaseDate.Format(dateLayout)
	}
	if m.Platform != nil {
		v.Platform = m.Platform.Name
	}
	return v
}

func MovieViews(movies []Movie) []*MovieView {
	out := make([]*MovieView, len(movies))
	for i := range movies {
		out[i] = movies[i].View()
	}
	return out
}

// MovieFilter narrows movie listings. Zero values match everything.
type MovieFilter struct {
	PlatformID *int64
	Active     *bool
	Search     string
}

// MovieRequest is used for create (all required fields set) and for
// partial updates (only non-nil fields applied).
type MovieRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	ReleaseDate *string `json:"release_date"`
	Active      *bool   `json:"active"`
	PlatformID  *int64  `json:"platform_id"`
}

func (r *MovieRequest) Normalize() {
	if r.Title != nil {
		t := strings.TrimSpace(*r.Title)
		r.Title = &t
	}
	if r.ReleaseDate != nil {
		d := strings.TrimSpace(*r.ReleaseDate)
		r.ReleaseDate = &d
	}
}

func (r *MovieRequest) Validate(partial bool) error {
	if !partial {
		if r.Title == nil {
			return apperr.E(apperr.Validation, "title is required")
		}
		if r.PlatformID == nil {
			return apperr.E(apperr.Validation, "platform_id is required")
		}
	}
	if r.Title != nil {
		if err := validate.First(validate.Required("title", *r.Title), validate.MaxLen("title", *r.Title, 100)); err != nil {
			return err
		}
	}
	if r.PlatformID != nil && *r.PlatformID <= 0 {
		return apperr.E(apperr.Validation, "platform_id must be positive")
	}
	if r.ReleaseDate != nil && *r.ReleaseDate != "" {
		if _, err := time.Parse(dateLayout, *r.ReleaseDate); err != nil {
			return apperr.E(apperr.Validation, "release_date must be YYYY-MM-DD")
		}
	}
	return nil
}

// Apply copies the set fields onto m. Validate must have passed.
func (r *MovieRequest) Apply(m *Movie) {
	if r.Title != nil {
		m.Title = *r.Title
	}
	if r.Description != nil {
		m.Description = *r.Description
	}
	if r.ReleaseDate != nil {
		if *r.ReleaseDate == "" {
			m.ReleaseDate = nil
		} else if d, err := time.Parse(dateLayout, *r.ReleaseDate); err == nil {
			m.ReleaseDate = &d
		}
	}
	if r.Active != nil {
		m.Active = *r.Active
	}
	if r.PlatformID != nil {
		m.PlatformID = *r.PlatformID
	}
}

// NewMovie builds a movie from a create request; active defaults to true.
func (r *MovieRequest) NewMovie() *Movie {
	m := &Movie{Active: true}
	r.Apply(m)
	return m
}
