package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"math/big"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mlukyanov/shortly/internal/models"
	"github.com/mlukyanov/shortly/internal/repository"
)

var (
	ErrInvalidURL   = errors.New("invalid original url")
	ErrInvalidAlias = errors.New("invalid custom alias")
	ErrAliasTaken   = errors.New("alias already in use")
	ErrNotFound     = errors.New("url not found")
	ErrForbidden    = errors.New("forbidden")
	ErrLinkInactive = errors.New("link is inactive")
	ErrCodeSpace    = errors.New("failed to allocate unique short code")
)

const (
	codeAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 7
	maxAttempts  = 5

	maxOriginalURLLen = 2048

	maxLimit = 100
	// maxPage keeps (page-1)*limit within int64 for any clamped limit.
	maxPage = math.MaxInt64 / maxLimit

	clickTimeout = 5 * time.Second
)

var aliasPattern = regexp.MustCompile(`^[a-zA-Z0-9]{3,20}$`)

type ShortenerService struct {
	repo    repository.Repository
	baseURL string
	logger  *zap.Logger
}

func NewShortenerService(repo repository.Repository, baseURL string, logger *zap.Logger) *ShortenerService {
	return &ShortenerService{
		repo:    repo,
		baseURL: baseURL,
		logger:  logger,
	}
}

// GenerateShortCode returns a random alphanumeric code drawn from
// crypto/rand, one character at a time to keep the distribution uniform.
func (s *ShortenerService) GenerateShortCode() (string, error) {
	var sb strings.Builder
	sb.Grow(codeLength)

	alphabetLen := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < codeLength; i++ {
		idx, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("random index: %w", err)
		}
		sb.WriteByte(codeAlphabet[idx.Int64()])
	}

	return sb.String(), nil
}

// HashIP produces the one-way hash stored instead of raw client addresses.
func HashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:])
}

// ShortURL joins the configured base URL with a short code.
func (s *ShortenerService) ShortURL(shortCode string) string {
	full, _ := url.JoinPath(s.baseURL, shortCode)
	return full
}

func validateOriginalURL(originalURL string) error {
	if originalURL == "" || len(originalURL) > maxOriginalURLLen {
		return ErrInvalidURL
	}
	parsed, err := url.Parse(originalURL)
	if err != nil {
		return ErrInvalidURL
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ErrInvalidURL
	}
	if parsed.Host == "" {
		return ErrInvalidURL
	}
	return nil
}

func validateAlias(alias string) error {
	if !aliasPattern.MatchString(alias) {
		return ErrInvalidAlias
	}
	return nil
}

// CreateShortURL validates input and claims a short code for ownerID. With a
// custom alias the alias becomes the record's short code or the call fails
// with ErrAliasTaken; otherwise random codes are tried until one is free.
// The final word on uniqueness belongs to the storage constraint: a unique
// violation on insert is the collision signal, so two simultaneous requests
// for the same alias cannot both win.
func (s *ShortenerService) CreateShortURL(ctx context.Context, originalURL, customAlias, ownerID string) (*models.URL, error) {
	if err := validateOriginalURL(originalURL); err != nil {
		return nil, err
	}

	now := time.Now()
	record := &models.URL{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		OriginalURL: originalURL,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if customAlias != "" {
		if err := validateAlias(customAlias); err != nil {
			return nil, err
		}
		record.ShortCode = customAlias
		record.CustomAlias = customAlias

		if err := s.repo.CreateURL(ctx, record); err != nil {
			if errors.Is(err, repository.ErrCodeTaken) {
				return nil, ErrAliasTaken
			}
			return nil, err
		}
		return record, nil
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		code, err := s.GenerateShortCode()
		if err != nil {
			return nil, err
		}

		// The insert's unique indexes are per-column; a generated code equal
		// to an alias held by a row with a different short code would slip
		// through, so check the combined namespace first.
		taken, err := s.repo.CodeInUse(ctx, code, "")
		if err != nil {
			return nil, err
		}
		if taken {
			continue
		}
		record.ShortCode = code

		err = s.repo.CreateURL(ctx, record)
		if err == nil {
			return record, nil
		}
		if errors.Is(err, repository.ErrCodeTaken) {
			continue
		}
		return nil, err
	}

	s.logger.Error("Exhausted short code attempts",
		zap.Int("attempts", maxAttempts))
	return nil, ErrCodeSpace
}

// Resolve maps a short code to its record for redirecting.
func (s *ShortenerService) Resolve(ctx context.Context, shortCode string) (*models.URL, error) {
	record, err := s.repo.GetURLByCode(ctx, shortCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if !record.IsActive {
		return nil, ErrLinkInactive
	}

	return record, nil
}

// RecordClick persists a click event in the background. It returns before the
// write completes and never reports failure to the caller; the redirect
// response must not wait on or break over click bookkeeping.
func (s *ShortenerService) RecordClick(urlID, clientIP string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), clickTimeout)
		defer cancel()

		if err := s.repo.RecordClick(ctx, urlID, HashIP(clientIP)); err != nil {
			s.logger.Error("Failed to record click",
				zap.String("urlID", urlID),
				zap.Error(err))
			return
		}
		s.logger.Debug("Click recorded", zap.String("urlID", urlID))
	}()
}

// getOwned loads a record and enforces ownership.
func (s *ShortenerService) getOwned(ctx context.Context, id, ownerID string) (*models.URL, error) {
	record, err := s.repo.GetURLByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if record.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return record, nil
}

func (s *ShortenerService) GetURL(ctx context.Context, id, ownerID string) (*models.URL, error) {
	return s.getOwned(ctx, id, ownerID)
}

// UpdateURL applies a partial update to an owned record. A new alias is
// checked against the combined namespace excluding the record itself; the
// unique index closes the remaining race on write.
func (s *ShortenerService) UpdateURL(ctx context.Context, id, ownerID string, req models.UpdateURLRequest) (*models.URL, error) {
	record, err := s.getOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if req.CustomAlias != nil {
		alias := *req.CustomAlias
		if err := validateAlias(alias); err != nil {
			return nil, err
		}
		taken, err := s.repo.CodeInUse(ctx, alias, record.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrAliasTaken
		}
		record.CustomAlias = alias
	}

	if req.IsActive != nil {
		record.IsActive = *req.IsActive
	}

	record.UpdatedAt = time.Now()

	if err := s.repo.UpdateURL(ctx, record); err != nil {
		if errors.Is(err, repository.ErrCodeTaken) {
			return nil, ErrAliasTaken
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return record, nil
}

func (s *ShortenerService) DeleteURL(ctx context.Context, id, ownerID string) error {
	if _, err := s.getOwned(ctx, id, ownerID); err != nil {
		return err
	}

	if err := s.repo.DeleteURL(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	return nil
}

// ListURLs returns one page of the owner's links with click counts plus the
// total matching count. Page and limit are normalized here: page is clamped
// to [1,maxPage] so the offset cannot overflow, limit to [1,100].
func (s *ShortenerService) ListURLs(ctx context.Context, q *models.ListQuery) ([]models.URLSummary, int64, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Page > maxPage {
		q.Page = maxPage
	}
	if q.Limit < 1 {
		q.Limit = 1
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	switch q.Sort {
	case models.SortCreatedAsc, models.SortClicksDesc, models.SortClicksAsc:
	default:
		q.Sort = models.SortCreatedDesc
	}

	return s.repo.ListURLs(ctx, *q)
}

// Analytics returns the total click count and the ascending per-day series
// for an owned record, bounded by the optional range.
func (s *ShortenerService) Analytics(ctx context.Context, id, ownerID string, r models.AnalyticsRange) (int64, []models.DayCount, error) {
	if _, err := s.getOwned(ctx, id, ownerID); err != nil {
		return 0, nil, err
	}

	return s.repo.ClickStats(ctx, id, r)
}

func (s *ShortenerService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
