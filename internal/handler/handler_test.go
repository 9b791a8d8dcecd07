package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mlukyanov/shortly/internal/middleware"
	"github.com/mlukyanov/shortly/internal/models"
	"github.com/mlukyanov/shortly/internal/repository"
	"github.com/mlukyanov/shortly/internal/service"
)

const (
	testSecret  = "test-secret-key"
	testBaseURL = "http://localhost:8080"
)

type testEnv struct {
	repo   *repository.MemoryRepository
	svc    *service.ShortenerService
	router http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := zap.NewNop()
	repo := repository.NewMemoryRepository()
	svc := service.NewShortenerService(repo, testBaseURL, logger)
	h := NewHandler(svc, logger, middleware.NewAuthMiddleware(testSecret, logger))

	return &testEnv{
		repo:   repo,
		svc:    svc,
		router: h.SetupRouter(),
	}
}

// authCookie mints the session cookie the identity provider would issue.
func authCookie(t *testing.T, userID string) *http.Cookie {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: userID})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	return &http.Cookie{Name: middleware.CookieName, Value: signed}
}

func seedURL(t *testing.T, env *testEnv, ownerID, shortCode, customAlias string, active bool, createdAt time.Time) *models.URL {
	t.Helper()

	record := &models.URL{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		OriginalURL: "https://example.com/" + shortCode,
		ShortCode:   shortCode,
		CustomAlias: customAlias,
		IsActive:    active,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	require.NoError(t, env.repo.CreateURL(context.Background(), record))

	return record
}

func decodeJSON(t *testing.T, body []byte, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(body, v))
}
