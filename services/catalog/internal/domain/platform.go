package domain

import (
	"strings"

	"github.com/diagnosis/cinelist/pkg/apperr"
	"github.com/diagnosis/cinelist/pkg/validate"
)

type Platform struct {
	ID     int64   `gorm:"primaryKey"`
	Name   string  `gorm:"size:30;uniqueIndex;not null"`
	URL    string  `gorm:"column:url;size:200;uniqueIndex;not null"`
	Movies []Movie `gorm:"foreignKey:PlatformID"`
}

func (Platform) TableName() string { return "platforms" }

type PlatformView struct {
	ID     int64    `json:"id"`
	Name   string   `json:"name"`
	URL    string   `json:"url"`
	Movies []string `json:"movies"`
}

// View lists movie titles rather than full movies.
func (p *Platform) View() *PlatformView {
	titles := make([]string, len(p.Movies))
	for i, m := range p.Movies {
		titles[i] = m.Title
	}
	return &PlatformView{ID: p.ID, Name: p.Name, URL: p.URL, Movies: titles}
}

type PlatformRequest struct {
	Name *string `json:"name"`
	URL  *string `json:"url"`
}

func (r *PlatformRequest) Normalize() {
	if r.Name != nil {
		n := strings.TrimSpace(*r.Name)
		r.Name = &n
	}
	if r.URL != nil {
		u := strings.TrimSpace(*r.URL)
		r.URL = &u
	}
}

func (r *PlatformRequest) Validate(partial bool) error {
	if !partial && (r.Name == nil || r.URL == nil) {
		return apperr.E(apperr.Validation, "name and url are required")
	}
	if r.Name != nil {
		if err := validate.First(validate.Required("name", *r.Name), validate.MaxLen("name", *r.Name, 30)); err != nil {
			return err
		}
	}
	if r.URL != nil {
		if err := validate.First(validate.URL("url", *r.URL), validate.MaxLen("url", *r.URL, 200)); err != nil {
			return err
		}
	}
	return nil
}

func (r *PlatformRequest) Apply(p *Platform) {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.URL != nil {
		p.URL = *r.URL
	}
}
