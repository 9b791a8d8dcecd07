package main

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/mlukyanov/shortly/internal/config"
	"github.com/mlukyanov/shortly/internal/handler"
	"github.com/mlukyanov/shortly/internal/middleware"
	"github.com/mlukyanov/shortly/internal/repository"
	"github.com/mlukyanov/shortly/internal/service"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	sugar := logger.Sugar()

	sugar.Infow("Starting URL shortener service")

	cfg, err := config.ParseFlags()
	if err != nil {
		sugar.Fatalw("Configuration error",
			"error", err.Error())
	}

	sugar.Infow("Configuration loaded",
		"server_address", cfg.ServerAddress,
		"base_url", cfg.BaseURL,
		"database_configured", cfg.DatabaseDSN != "",
	)

	var repo repository.Repository
	if cfg.DatabaseDSN != "" {
		pgRepo, err := repository.NewPostgresRepository(cfg.DatabaseDSN, logger)
		if err != nil {
			sugar.Fatalw("Failed to initialize PostgreSQL repository",
				"error", err.Error())
		}
		repo = pgRepo
	} else {
		sugar.Warnw("No database DSN configured, using in-memory storage")
		repo = repository.NewMemoryRepository()
	}
	defer repo.Close()

	shortenerService := service.NewShortenerService(repo, cfg.BaseURL, logger)
	authMiddleware := middleware.NewAuthMiddleware(cfg.AuthSecret, logger)

	h := handler.NewHandler(shortenerService, logger, authMiddleware)
	r := h.SetupRouter()

	sugar.Infow("Server starting",
		"address", cfg.ServerAddress,
	)

	if err := http.ListenAndServe(cfg.ServerAddress, r); err != nil {
		sugar.Fatalw(err.Error(), "event", "start server")
	}
}
