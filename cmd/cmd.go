package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"life-story-backend/internal/config"
	"life-story-backend/internal/handlers"
	"life-story-backend/internal/middleware"
	"life-story-backend/internal/repository"
	"life-story-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	// Connect to database
	db, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	// Apply schema migrations
	if err := repository.Migrate(cfg.Database.URL()); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}

	// Initialize repositories
	answerRepo := repository.NewAnswerRepository(db)
	memoryRepo := repository.NewMemoryRepository(db)

	// Initialize services
	tokenService, err := services.NewTokenService(cfg.Auth.PrivateKey, cfg.Auth.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create token service")
	}
	fileStore, err := services.NewFileStore(cfg.Upload.Path, cfg.Upload.MaxFileSizeBytes())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create file store")
	}
	lifeStoryService := services.NewLifeStoryService(answerRepo, fileStore)
	memoryService := services.NewMemoryService(memoryRepo, fileStore)
	cleanupService := services.NewCleanupService(fileStore, answerRepo, memoryRepo)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(tokenService)
	lifeStoryHandler := handlers.NewLifeStoryHandler(lifeStoryService)
	memoriesHandler := handlers.NewMemoriesHandler(memoryService)
	mediaHandler := handlers.NewMediaHandler(fileStore, cleanupService)
	exportHandler := handlers.NewExportHandler(lifeStoryService, memoryService)

	requireAuth := middleware.RequireAuth(tokenService)
	optionalAuth := middleware.OptionalAuth(tokenService)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(handlers.NotFound)

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.Limit(
			cfg.RateLimit.Max,
			time.Duration(cfg.RateLimit.Window),
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				log.Warn().Str("remote", r.RemoteAddr).Str("url", r.URL.Path).Msg("Rate limit exceeded")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":"Too many requests from this IP, please try again later."}`))
			}),
		))

		r.Get("/health", handlers.Health)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/verify", authHandler.Verify)
			r.Post("/check", authHandler.Check)
		})

		r.Route("/life-story", func(r chi.Router) {
			r.With(optionalAuth).Get("/answers", lifeStoryHandler.ListAnswers)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/answers/{questionId}", lifeStoryHandler.SaveAnswer)
				r.Put("/answers/{questionId}", lifeStoryHandler.UpdateAnswer)
				r.Delete("/answers/{questionId}", lifeStoryHandler.DeleteAnswer)
			})
		})

		r.Route("/memories", func(r chi.Router) {
			r.Get("/", memoriesHandler.List)
			r.Post("/", memoriesHandler.Create)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/all", memoriesHandler.ListAll)
				r.Put("/{id}/approve", memoriesHandler.Approve)
				r.Delete("/{id}", memoriesHandler.Delete)
			})
		})

		r.Route("/media", func(r chi.Router) {
			r.With(optionalAuth).Post("/upload/photo", mediaHandler.UploadPhoto)
			r.Get("/upload/photo/{filename}", mediaHandler.ServePhoto)
			r.Get("/upload/audio/{filename}", mediaHandler.ServeAudio)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/upload/audio", mediaHandler.UploadAudio)
				r.Delete("/upload/photo/{filename}", mediaHandler.DeletePhoto)
				r.Delete("/upload/audio/{filename}", mediaHandler.DeleteAudio)
				r.Get("/list", mediaHandler.List)
				r.Get("/cleanup", mediaHandler.Cleanup)
			})
		})

		r.With(requireAuth).Get("/export/pdf", exportHandler.ExportPDF)
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
