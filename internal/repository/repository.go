package repository

import (
	"context"
	"errors"

	"github.com/mlukyanov/shortly/internal/models"
)

var (
	// ErrNotFound is returned when no URL record matches the lookup.
	ErrNotFound = errors.New("url not found")
	// ErrCodeTaken is returned when a short code or custom alias is already
	// claimed anywhere in the combined namespace.
	ErrCodeTaken = errors.New("short code already taken")
)

// Repository persists URL records and their click events. The combined
// short_code/custom_alias namespace is guarded at this layer: CreateURL and
// UpdateURL must report ErrCodeTaken instead of a generic error when a
// uniqueness constraint rejects the write.
type Repository interface {
	CreateURL(ctx context.Context, u *models.URL) error
	GetURLByCode(ctx context.Context, shortCode string) (*models.URL, error)
	GetURLByID(ctx context.Context, id string) (*models.URL, error)
	UpdateURL(ctx context.Context, u *models.URL) error
	DeleteURL(ctx context.Context, id string) error

	// CodeInUse reports whether code is claimed as any record's short_code or
	// custom_alias, ignoring the record with excludeID when non-empty.
	CodeInUse(ctx context.Context, code, excludeID string) (bool, error)

	ListURLs(ctx context.Context, q models.ListQuery) ([]models.URLSummary, int64, error)

	RecordClick(ctx context.Context, urlID, ipHash string) error
	ClickStats(ctx context.Context, urlID string, r models.AnalyticsRange) (int64, []models.DayCount, error)

	Ping(ctx context.Context) error
	Close() error
}
