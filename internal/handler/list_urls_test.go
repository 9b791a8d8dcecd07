package handler

import (
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlukyanov/shortly/internal/models"
)

func seedListFixtures(t *testing.T, env *testEnv) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.Local)

	oldest := seedURL(t, env, "user-1", "oldest1", "", true, base)
	middle := seedURL(t, env, "user-1", "middle1", "docs234", true, base.Add(time.Hour))
	newest := seedURL(t, env, "user-1", "newest1", "", true, base.Add(2*time.Hour))
	seedURL(t, env, "user-2", "foreign1", "", true, base)

	env.repo.AddClick(oldest.ID, "h1", base)
	env.repo.AddClick(oldest.ID, "h2", base)
	env.repo.AddClick(oldest.ID, "h3", base)
	env.repo.AddClick(middle.ID, "h1", base)
	_ = newest
}

func TestListURLsHandler(t *testing.T) {
	type want struct {
		statusCode int
		page       int
		limit      int
		total      int64
		shortCodes []string
	}

	tests := []struct {
		name          string
		query         string
		authenticated bool
		want          want
	}{
		{
			name:  "unauthenticated",
			query: "",
			want: want{
				statusCode: http.StatusUnauthorized,
			},
		},
		{
			name:          "defaults to newest first",
			query:         "",
			authenticated: true,
			want: want{
				statusCode: http.StatusOK,
				page:       1,
				limit:      10,
				total:      3,
				shortCodes: []string{"newest1", "middle1", "oldest1"},
			},
		},
		{
			name:          "oldest first",
			query:         "?sortBy=created_asc",
			authenticated: true,
			want: want{
				statusCode: http.StatusOK,
				page:       1,
				limit:      10,
				total:      3,
				shortCodes: []string{"oldest1", "middle1", "newest1"},
			},
		},
		{
			name:          "most clicked first",
			query:         "?sortBy=clicks_desc",
			authenticated: true,
			want: want{
				statusCode: http.StatusOK,
				page:       1,
				limit:      10,
				total:      3,
				shortCodes: []string{"oldest1", "middle1", "newest1"},
			},
		},
		{
			name:          "limit clamped to upper bound",
			query:         "?limit=500",
			authenticated: true,
			want: want{
				statusCode: http.StatusOK,
				page:       1,
				limit:      100,
				total:      3,
				shortCodes: []string{"newest1", "middle1", "oldest1"},
			},
		},
		{
			name:          "limit clamped to lower bound with full total",
			query:         "?limit=-3&page=0",
			authenticated: true,
			want: want{
				statusCode: http.StatusOK,
				page:       1,
				limit:      1,
				total:      3,
				shortCodes: []string{"newest1"},
			},
		},
		{
			name:          "explicit zero limit clamped up",
			query:         "?limit=0",
			authenticated: true,
			want: want{
				statusCode: http.StatusOK,
				page:       1,
				limit:      1,
				total:      3,
				shortCodes: []string{"newest1"},
			},
		},
		{
			name:          "page far past the end",
			query:         "?page=9223372036854775807&limit=2",
			authenticated: true,
			want: want{
				statusCode: http.StatusOK,
				page:       math.MaxInt64 / 100,
				limit:      2,
				total:      3,
				shortCodes: []string{},
			},
		},
		{
			name:          "second page",
			query:         "?limit=2&page=2",
			authenticated: true,
			want: want{
				statusCode: http.StatusOK,
				page:       2,
				limit:      2,
				total:      3,
				shortCodes: []string{"oldest1"},
			},
		},
		{
			name:          "search matches alias case-insensitively",
			query:         "?search=DOCS",
			authenticated: true,
			want: want{
				statusCode: http.StatusOK,
				page:       1,
				limit:      10,
				total:      1,
				shortCodes: []string{"middle1"},
			},
		},
		{
			name:          "search without matches",
			query:         "?search=nothing",
			authenticated: true,
			want: want{
				statusCode: http.StatusOK,
				page:       1,
				limit:      10,
				total:      0,
				shortCodes: []string{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			seedListFixtures(t, env)

			req := httptest.NewRequest(http.MethodGet, "/api/urls"+tt.query, nil)
			if tt.authenticated {
				req.AddCookie(authCookie(t, "user-1"))
			}
			rec := httptest.NewRecorder()

			env.router.ServeHTTP(rec, req)

			require.Equal(t, tt.want.statusCode, rec.Code)
			if rec.Code != http.StatusOK {
				return
			}

			var resp models.URLListResponse
			decodeJSON(t, rec.Body.Bytes(), &resp)

			assert.Equal(t, tt.want.page, resp.Page)
			assert.Equal(t, tt.want.limit, resp.Limit)
			assert.Equal(t, tt.want.total, resp.Total)

			shortCodes := make([]string, len(resp.Items))
			for i, item := range resp.Items {
				shortCodes[i] = item.ShortCode
			}
			assert.Equal(t, tt.want.shortCodes, shortCodes)
		})
	}
}

func TestListURLsHandlerClickCounts(t *testing.T) {
	env := newTestEnv(t)
	seedListFixtures(t, env)

	req := httptest.NewRequest(http.MethodGet, "/api/urls?sortBy=created_asc", nil)
	req.AddCookie(authCookie(t, "user-1"))
	rec := httptest.NewRecorder()

	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.URLListResponse
	decodeJSON(t, rec.Body.Bytes(), &resp)
	require.Len(t, resp.Items, 3)

	counts := map[string]int64{}
	for _, item := range resp.Items {
		counts[item.ShortCode] = item.ClickCount
	}
	assert.Equal(t, int64(3), counts["oldest1"])
	assert.Equal(t, int64(1), counts["middle1"])
	assert.Equal(t, int64(0), counts["newest1"])
}
