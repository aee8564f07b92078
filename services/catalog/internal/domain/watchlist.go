package domain

import "time"

// WatchlistItem is one movie on a user's watchlist.
type WatchlistItem struct {
	ID       int64     `json:"id"`
	MovieID  int64     `json:"movie_id"`
	Title    string    `json:"title"`
	Platform string    `json:"platform"`
	Rating   float64   `json:"rating"`
	Active   bool      `json:"active"`
	AddedOn  time.Time `json:"added_on"`
}
