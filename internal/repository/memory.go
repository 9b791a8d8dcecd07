package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mlukyanov/shortly/internal/models"
)

// MemoryRepository is an in-memory Repository used by tests and when no
// database DSN is configured. The claims map mirrors the two unique indexes
// of the Postgres schema: every short_code and custom_alias maps to the URL
// id that holds it.
type MemoryRepository struct {
	mu     sync.RWMutex
	urls   map[string]*models.URL
	claims map[string]string
	clicks map[string][]models.Click
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		urls:   make(map[string]*models.URL),
		claims: make(map[string]string),
		clicks: make(map[string][]models.Click),
	}
}

func (m *MemoryRepository) CreateURL(_ context.Context, u *models.URL) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.claims[u.ShortCode]; taken {
		return ErrCodeTaken
	}
	if u.CustomAlias != "" {
		if holder, taken := m.claims[u.CustomAlias]; taken && holder != u.ID {
			return ErrCodeTaken
		}
	}

	stored := *u
	m.urls[stored.ID] = &stored
	m.claims[stored.ShortCode] = stored.ID
	if stored.CustomAlias != "" {
		m.claims[stored.CustomAlias] = stored.ID
	}

	return nil
}

func (m *MemoryRepository) GetURLByCode(_ context.Context, shortCode string) (*models.URL, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.urls {
		if u.ShortCode == shortCode {
			copied := *u
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryRepository) GetURLByID(_ context.Context, id string) (*models.URL, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.urls[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *MemoryRepository) UpdateURL(_ context.Context, u *models.URL) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.urls[u.ID]
	if !ok {
		return ErrNotFound
	}

	if u.CustomAlias != "" {
		if holder, taken := m.claims[u.CustomAlias]; taken && holder != u.ID {
			return ErrCodeTaken
		}
	}

	if current.CustomAlias != "" && current.CustomAlias != u.CustomAlias {
		delete(m.claims, current.CustomAlias)
	}
	if u.CustomAlias != "" {
		m.claims[u.CustomAlias] = u.ID
	}

	stored := *u
	m.urls[stored.ID] = &stored
	return nil
}

func (m *MemoryRepository) DeleteURL(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.urls[id]
	if !ok {
		return ErrNotFound
	}

	delete(m.claims, u.ShortCode)
	if u.CustomAlias != "" {
		delete(m.claims, u.CustomAlias)
	}
	delete(m.urls, id)
	delete(m.clicks, id)

	return nil
}

func (m *MemoryRepository) CodeInUse(_ context.Context, code, excludeID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	holder, taken := m.claims[code]
	if !taken {
		return false, nil
	}
	if excludeID != "" && holder == excludeID {
		return false, nil
	}
	return true, nil
}

func (m *MemoryRepository) ListURLs(_ context.Context, q models.ListQuery) ([]models.URLSummary, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := strings.ToLower(q.Search)
	matched := make([]models.URLSummary, 0, len(m.urls))
	for _, u := range m.urls {
		if u.OwnerID != q.OwnerID {
			continue
		}
		if needle != "" && !matchesSearch(u, needle) {
			continue
		}
		matched = append(matched, models.URLSummary{
			URL:        *u,
			ClickCount: int64(len(m.clicks[u.ID])),
		})
	}

	sort.Slice(matched, func(i, j int) bool {
		switch q.Sort {
		case models.SortCreatedAsc:
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		case models.SortClicksDesc:
			return matched[i].ClickCount > matched[j].ClickCount
		case models.SortClicksAsc:
			return matched[i].ClickCount < matched[j].ClickCount
		default:
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
	})

	total := int64(len(matched))

	// A huge page can overflow the product; a negative start means the page
	// is past the end either way.
	start := (q.Page - 1) * q.Limit
	if start < 0 || start >= len(matched) {
		return []models.URLSummary{}, total, nil
	}
	end := start + q.Limit
	if end > len(matched) {
		end = len(matched)
	}

	return matched[start:end], total, nil
}

func matchesSearch(u *models.URL, needle string) bool {
	return strings.Contains(strings.ToLower(u.OriginalURL), needle) ||
		strings.Contains(strings.ToLower(u.ShortCode), needle) ||
		strings.Contains(strings.ToLower(u.CustomAlias), needle)
}

func (m *MemoryRepository) RecordClick(_ context.Context, urlID, ipHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.urls[urlID]; !ok {
		return ErrNotFound
	}

	m.clicks[urlID] = append(m.clicks[urlID], models.Click{
		ID:        uuid.New().String(),
		URLID:     urlID,
		ClickedAt: time.Now(),
		IPHash:    ipHash,
	})

	return nil
}

// AddClick inserts a click with an explicit timestamp. Analytics tests use it
// to place clicks on specific days.
func (m *MemoryRepository) AddClick(urlID, ipHash string, clickedAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clicks[urlID] = append(m.clicks[urlID], models.Click{
		ID:        uuid.New().String(),
		URLID:     urlID,
		ClickedAt: clickedAt,
		IPHash:    ipHash,
	})
}

// Clicks returns a copy of the recorded click events for a URL.
func (m *MemoryRepository) Clicks(urlID string) []models.Click {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]models.Click(nil), m.clicks[urlID]...)
}

func (m *MemoryRepository) ClickStats(_ context.Context, urlID string, r models.AnalyticsRange) (int64, []models.DayCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	perDay := make(map[time.Time]int64)
	var total int64
	for _, c := range m.clicks[urlID] {
		if r.Start != nil && c.ClickedAt.Before(*r.Start) {
			continue
		}
		if r.End != nil && c.ClickedAt.After(*r.End) {
			continue
		}
		total++
		day := truncateToDay(c.ClickedAt)
		perDay[day]++
	}

	series := make([]models.DayCount, 0, len(perDay))
	for day, count := range perDay {
		series = append(series, models.DayCount{Day: day, Count: count})
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Day.Before(series[j].Day)
	})

	return total, series, nil
}

func truncateToDay(t time.Time) time.Time {
	local := t.Local()
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())
}

func (m *MemoryRepository) Ping(_ context.Context) error {
	return nil
}

func (m *MemoryRepository) Close() error {
	return nil
}
