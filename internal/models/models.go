package models

import "time"

// URL is a single shortened link. ShortCode is the canonical lookup key;
// CustomAlias, when set, occupies the same uniqueness namespace but the
// redirect always resolves by ShortCode.
type URL struct {
	ID          string
	OwnerID     string
	OriginalURL string
	ShortCode   string
	CustomAlias string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// URLSummary is a URL annotated with its click count, as returned by listing.
type URLSummary struct {
	URL
	ClickCount int64
}

type Click struct {
	ID        string
	URLID     string
	ClickedAt time.Time
	IPHash    string
}

// DayCount is one point of a per-day click series.
type DayCount struct {
	Day   time.Time
	Count int64
}

type SortKey string

const (
	SortCreatedDesc SortKey = "created_desc"
	SortCreatedAsc  SortKey = "created_asc"
	SortClicksDesc  SortKey = "clicks_desc"
	SortClicksAsc   SortKey = "clicks_asc"
)

// ListQuery holds the listing parameters after normalization.
type ListQuery struct {
	OwnerID string
	Page    int
	Limit   int
	Search  string
	Sort    SortKey
}

// AnalyticsRange bounds a click aggregation. Nil bounds are open ends.
type AnalyticsRange struct {
	Start *time.Time
	End   *time.Time
}

type CreateURLRequest struct {
	OriginalURL string `json:"originalUrl"`
	CustomAlias string `json:"customAlias,omitempty"`
}

type CreateURLResponse struct {
	ID          string `json:"id"`
	ShortCode   string `json:"shortCode"`
	ShortURL    string `json:"shortUrl"`
	OriginalURL string `json:"originalUrl"`
}

type URLResponse struct {
	ID          string    `json:"id"`
	OriginalURL string    `json:"originalUrl"`
	ShortCode   string    `json:"shortCode"`
	CustomAlias string    `json:"customAlias,omitempty"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type URLListItem struct {
	URLResponse
	ClickCount int64 `json:"clickCount"`
}

type URLListResponse struct {
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
	Total int64         `json:"total"`
	Items []URLListItem `json:"items"`
}

// UpdateURLRequest carries a partial update; nil fields are left untouched.
type UpdateURLRequest struct {
	CustomAlias *string `json:"customAlias"`
	IsActive    *bool   `json:"isActive"`
}

type DayCountResponse struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

type AnalyticsResponse struct {
	Total  int64              `json:"total"`
	Series []DayCountResponse `json:"series"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
