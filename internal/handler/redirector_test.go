package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlukyanov/shortly/internal/models"
	"github.com/mlukyanov/shortly/internal/service"
)

func TestRedirectHandler(t *testing.T) {
	type want struct {
		statusCode int
		location   string
		errorBody  string
	}

	tests := []struct {
		name string
		path string
		seed func(t *testing.T, env *testEnv)
		want want
	}{
		{
			name: "active link redirects",
			path: "/active1",
			seed: func(t *testing.T, env *testEnv) {
				seedURL(t, env, "owner", "active1", "", true, time.Now())
			},
			want: want{
				statusCode: http.StatusFound,
				location:   "https://example.com/active1",
			},
		},
		{
			name: "unknown code",
			path: "/missing",
			want: want{
				statusCode: http.StatusNotFound,
				errorBody:  "Not Found",
			},
		},
		{
			name: "inactive link",
			path: "/paused1",
			seed: func(t *testing.T, env *testEnv) {
				seedURL(t, env, "owner", "paused1", "", false, time.Now())
			},
			want: want{
				statusCode: http.StatusGone,
				errorBody:  "Link is inactive",
			},
		},
		{
			name: "lookup is case sensitive",
			path: "/Mixed11",
			seed: func(t *testing.T, env *testEnv) {
				seedURL(t, env, "owner", "mixed11", "", true, time.Now())
			},
			want: want{
				statusCode: http.StatusNotFound,
				errorBody:  "Not Found",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			if tt.seed != nil {
				tt.seed(t, env)
			}

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()

			env.router.ServeHTTP(rec, req)

			require.Equal(t, tt.want.statusCode, rec.Code)

			if tt.want.location != "" {
				assert.Equal(t, tt.want.location, rec.Header().Get("Location"))
			}
			if tt.want.errorBody != "" {
				var errResp models.ErrorResponse
				decodeJSON(t, rec.Body.Bytes(), &errResp)
				assert.Equal(t, tt.want.errorBody, errResp.Error)
			}
		})
	}
}

func TestRedirectHandlerRecordsClicks(t *testing.T) {
	env := newTestEnv(t)
	record := seedURL(t, env, "owner", "clicky1", "", true, time.Now())

	clickTotal := func() int64 {
		total, _, err := env.repo.ClickStats(context.Background(), record.ID, models.AnalyticsRange{})
		if err != nil {
			return -1
		}
		return total
	}

	for i, expected := range []int64{1, 2} {
		req := httptest.NewRequest(http.MethodGet, "/clicky1", nil)
		req.Header.Set("X-Forwarded-For", "198.51.100.4")
		rec := httptest.NewRecorder()

		env.router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusFound, rec.Code, "request %d", i+1)

		// Recording is asynchronous: the redirect must not wait on it.
		require.Eventually(t, func() bool {
			return clickTotal() == expected
		}, time.Second, 10*time.Millisecond)
	}
}

func TestRedirectHandlerHashesClientIP(t *testing.T) {
	env := newTestEnv(t)
	record := seedURL(t, env, "owner", "hashed1", "", true, time.Now())

	req := httptest.NewRequest(http.MethodGet, "/hashed1", nil)
	req.Header.Set("X-Real-IP", "198.51.100.9")
	rec := httptest.NewRecorder()

	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusFound, rec.Code)

	require.Eventually(t, func() bool {
		total, _, err := env.repo.ClickStats(context.Background(), record.ID, models.AnalyticsRange{})
		return err == nil && total == 1
	}, time.Second, 10*time.Millisecond)

	clicks := env.repo.Clicks(record.ID)
	require.Len(t, clicks, 1)
	assert.Equal(t, service.HashIP("198.51.100.9"), clicks[0].IPHash)
	assert.NotContains(t, clicks[0].IPHash, "198.51.100.9")
}
