package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	api "github.com/prepsetu/prepsetu-backend/internal/api/http"
	auth "github.com/prepsetu/prepsetu-backend/internal/auth/middleware"
	"github.com/prepsetu/prepsetu-backend/internal/config"
	"github.com/prepsetu/prepsetu-backend/internal/db"
	"github.com/prepsetu/prepsetu-backend/internal/question"
	"github.com/prepsetu/prepsetu-backend/internal/rbac"
	"github.com/prepsetu/prepsetu-backend/internal/result"
	"github.com/prepsetu/prepsetu-backend/internal/session"
	"github.com/prepsetu/prepsetu-backend/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	questions := question.NewSQLStore(dbh, cfg.DBDriver)
	results := result.NewSQLStore(dbh, cfg.DBDriver)

	if cfg.SeedPath != "" {
		if err := seedIfEmpty(ctx, dbh, questions, cfg.SeedPath); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	}

	// --- Auth ---
	authSvc := auth.NewAuthService(cfg.AuthSecret)

	// --- Sessions ---
	deps := api.SessionDeps{
		Manager:   session.NewManager(),
		Questions: questions,
		Supplier:  session.NewSupplier(questions),
		Reporter:  results,
	}

	// --- Blob store (question figures) ---
	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/signup", auth.SignupHandler(authSvc, dbh))
	r.Post("/auth/login", auth.LoginHandler(authSvc, dbh))

	// Protected API (JWT → sub/role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		pr.With(rbac.Require("question:view")).
			Get("/subjects", api.ListSubjectsHandler(questions))
		pr.With(rbac.Require("question:view")).
			Get("/subjects/{subject}/chapters", api.ListChaptersHandler(questions))
		pr.With(rbac.Require("question:view")).
			Get("/pyq", api.PastYearHandler(questions))

		pr.With(rbac.Require("session:start")).
			Post("/sessions", api.StartInfinityHandler(deps))
		pr.With(rbac.Require("session:start")).
			Post("/sessions/pyq", api.StartPastYearHandler(deps))

		pr.Route("/sessions/{sessionID}", func(sr chi.Router) {
			sr.Use(rbac.Require("session:act"))
			sr.Get("/", api.GetSessionHandler(deps))
			sr.Post("/answer", api.AnswerHandler(deps))
			sr.Post("/next", api.NextHandler(deps))
			sr.Post("/prev", api.PrevHandler(deps))
			sr.Post("/jump", api.JumpHandler(deps))
			sr.Post("/back", api.BackHandler(deps))
			sr.Post("/resume", api.ResumeHandler(deps))
			sr.Post("/exit", api.ExitHandler(deps))
			sr.Post("/finish", api.FinishHandler(deps))
		})

		pr.With(rbac.Require("leaderboard:view")).
			Get("/leaderboard", api.LeaderboardHandler(results))
		pr.With(rbac.Require("result:view-own")).
			Get("/me/stats", api.MyStatsHandler(results))
		pr.With(rbac.Require("result:view-own")).
			Get("/me/results", api.MyResultsHandler(results))

		pr.With(rbac.Require("question:import")).
			Post("/questions/import", api.ImportQuestionsHandler(questions))
		pr.With(rbac.Require("users:list")).
			Get("/users", api.ListUsersHandler(dbh))

		pr.Route("/figures", func(fr chi.Router) {
			api.MountFigures(fr, bs)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}

// seedIfEmpty loads YAML question banks on first boot only.
func seedIfEmpty(ctx context.Context, dbh *sql.DB, store question.Store, dir string) error {
	var n int
	if err := dbh.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions`).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	loaded, err := question.SeedFromDir(ctx, store, dir)
	if err != nil {
		return err
	}
	log.Printf("seeded %d questions from %s", loaded, dir)
	return nil
}
