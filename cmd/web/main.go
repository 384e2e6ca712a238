package main

import (
	"context"
	"net/http"
	"time"

	"quizforge/internal/app"
	"quizforge/internal/db"
	"quizforge/internal/logger"
)

func main() {
	cfg := app.LoadConfig()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()
	dbConn, err := db.OpenPostgresWithConfig(ctx, cfg.DBDSN, db.PostgresConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.DBConnMaxLifeMins) * time.Minute,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("database unavailable")
	}
	defer dbConn.Close()

	if err := db.EnsureSchema(ctx, dbConn); err != nil {
		log.Fatal().Err(err).Msg("schema setup failed")
	}

	r := app.NewRouter(cfg, dbConn)

	log.Info().
		Str("addr", cfg.HTTPAddr).
		Str("env", cfg.AppEnv).
		Str("ai_provider", cfg.AIProvider).
		Msg("quizforge web listening")
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
