package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	api "github.com/quizdeck/quizdeck/internal/api/http"
	"github.com/quizdeck/quizdeck/internal/audit"
	"github.com/quizdeck/quizdeck/internal/auth"
	authmw "github.com/quizdeck/quizdeck/internal/auth/middleware"
	"github.com/quizdeck/quizdeck/internal/config"
	"github.com/quizdeck/quizdeck/internal/db"
	"github.com/quizdeck/quizdeck/internal/grading"
	"github.com/quizdeck/quizdeck/internal/quiz"
	"github.com/quizdeck/quizdeck/internal/rbac"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	if cfg.SeedDemoData {
		if err := seedDemoData(ctx, dbh); err != nil {
			log.Fatalf("seed demo data: %v", err)
		}
	}

	store := quiz.NewSQLStore(dbh)
	svc := quiz.NewService(store, store, grading.NewSingleChoiceGrader(),
		quiz.WithGrace(cfg.SubmitGrace),
		quiz.WithEvents(audit.NewEventRepo(dbh)),
	)

	janitor := quiz.NewJanitor(store, cfg.SessionMaxAge)
	if err := janitor.Start(cfg.JanitorSpec); err != nil {
		log.Fatalf("janitor: %v", err)
	}
	defer janitor.Stop()

	authSvc := authmw.NewAuthService(cfg.AuthSecret)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.EnableLocalAuth {
		r.Post("/auth/login", authmw.LoginHandler(authSvc, dbh))
	}
	if cfg.EnableGuestAuth {
		r.Post("/auth/guest", auth.GuestLoginHandler(authSvc, dbh))
	}

	// Protected API (JWT -> subject+role in context -> RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(authSvc))

		pr.With(rbac.Require("catalog:browse")).
			Get("/categories", api.ListCategoriesHandler(svc))
		pr.With(rbac.Require("catalog:browse")).
			Get("/categories/{categoryID}/tests", api.ListTestsHandler(svc))
		pr.With(rbac.Require("catalog:browse")).
			Get("/tests", api.ListTestsHandler(svc))

		pr.With(rbac.Require("test:view")).
			Get("/tests/{testID}", api.GetTestHandler(svc))
		pr.With(rbac.Require("test:view")).
			Get("/tests/{testID}/questions", api.GetTestQuestionsHandler(svc))
		pr.With(rbac.Require("test:submit")).
			Post("/tests/{testID}/submit", api.SubmitTestHandler(svc))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/tests/{testID}/results", api.GetResultsHandler(svc))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts/{userID}", api.ListUserAttemptsHandler(svc))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (db=%s)", cfg.HTTPAddr, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
