package app

import (
	"database/sql"
	"net/http"
	"time"

	"quizforge/internal/app/observability"
	"quizforge/internal/auth"
	"quizforge/internal/exam"
	"quizforge/internal/ingest"
	"quizforge/internal/paper"
	"quizforge/internal/question"
	"quizforge/internal/report"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(cfg Config, db *sql.DB) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	collector := observability.NewCollector(db)
	r.Use(collector.Middleware)

	authSvc := auth.NewService(auth.ServiceConfig{
		TeacherPassword:     cfg.TeacherPassword,
		TeacherPasswordHash: cfg.TeacherPasswordHash,
		StudentPassword:     cfg.StudentPassword,
		StudentPasswordHash: cfg.StudentPasswordHash,
		SessionTTL:          time.Duration(cfg.SessionTTLMinutes) * time.Minute,
	})
	authHandler := auth.NewHandler(authSvc)

	paperSvc := paper.NewService(db)
	paperHandler := paper.NewHandler(paperSvc)

	questionHandler := question.NewHandler(question.NewService(db))
	examHandler := exam.NewHandler(exam.NewService(db))
	reportHandler := report.NewHandler(report.NewService(db))

	ingestSvc := ingest.NewService(ingest.ServiceConfig{
		Provider:      cfg.AIProvider,
		GeminiAPIKey:  cfg.GeminiAPIKey,
		GeminiModel:   cfg.GeminiModel,
		OpenAIAPIKey:  cfg.OpenAIAPIKey,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
		OpenAIModel:   cfg.OpenAIModel,
	})
	ingestHandler := ingest.NewHandler(ingestSvc, paperSvc)

	loginLimiter := NewIPRateLimiter(cfg.AuthRateLimitPerMin, time.Minute)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	r.Get("/metrics", collector.MetricsHandler)

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(CSRFMiddleware(cfg.CSRFEnforced))

		api.With(RateLimitMiddleware(loginLimiter)).Post("/auth/login", authHandler.Login)

		api.Group(func(secure chi.Router) {
			secure.Use(authHandler.RequireAuth)
			secure.Get("/auth/session", authHandler.Session)
			secure.Post("/auth/logout", authHandler.Logout)

			// Any signed-in role can browse the paper list.
			secure.Get("/papers", paperHandler.List)

			secure.Group(func(teacher chi.Router) {
				teacher.Use(authHandler.RequireRoles(auth.RoleTeacher))
				teacher.Post("/papers", paperHandler.Create)
				teacher.Get("/papers/{paperID}", paperHandler.Get)
				teacher.Delete("/papers/{paperID}", paperHandler.Delete)

				teacher.Post("/papers/{paperID}/questions", questionHandler.Add)
				teacher.Get("/papers/{paperID}/questions", questionHandler.ListByPaper)
				teacher.Put("/questions/{questionID}", questionHandler.Update)
				teacher.Delete("/questions/{questionID}", questionHandler.Delete)

				teacher.Get("/papers/{paperID}/report", reportHandler.PaperReport)

				teacher.Post("/papers/generate", ingestHandler.Generate)
				teacher.Post("/papers/import", ingestHandler.ImportFile)
			})

			secure.Group(func(student chi.Router) {
				student.Use(authHandler.RequireRoles(auth.RoleStudent))
				student.Get("/exam/papers/{paperID}", examHandler.Paper)
				student.Post("/exam/papers/{paperID}/submissions", examHandler.Submit)
			})
		})
	})

	return r
}
