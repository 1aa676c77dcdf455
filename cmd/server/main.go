package main

import (
	"context"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"bookbuddy/internal/bookinfo"
	"bookbuddy/internal/config"
	"bookbuddy/internal/database"
	"bookbuddy/internal/handlers"
	"bookbuddy/internal/lock"
	"bookbuddy/internal/repository"
	"bookbuddy/internal/security"
	"bookbuddy/internal/service"
	"bookbuddy/migrations"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations, from disk when MIGRATIONS_PATH is set
	var migrationsFS fs.FS = migrations.FS
	if cfg.MigrationsPath != "" {
		migrationsFS = os.DirFS(cfg.MigrationsPath)
	}
	if err := db.RunMigrations(migrationsFS); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	emailService, err := service.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}

	// Initialize services
	tokens := security.NewTokenIssuer(cfg.JWTSecret)
	authService := service.NewAuthService(repository.NewParentRepository(db), tokens, emailService, cfg.SessionDuration)
	childService := service.NewChildService(db)
	bookService := service.NewBookService(db,
		bookinfo.NewClient(cfg.BooksAPIURL, cfg.BooksLookupTimeout),
		lock.New(cfg.RedisAddr, cfg.RedisPassword),
		emailService,
		cfg.BooksLookupTimeout,
	)
	prizeService := service.NewPrizeService(db)

	oauthProviders := map[string]handlers.OAuthProvider{
		"google": {
			Name:  "google",
			Label: "Google",
			Config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				Endpoint:     google.Endpoint,
				Scopes:       []string{"openid", "email", "profile"},
			},
			UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		},
	}

	// Initialize handlers
	router := &handlers.Router{
		Middleware: handlers.NewMiddleware(authService, security.NewRateLimiter(10, time.Minute)),
		Auth:       handlers.NewAuthHandler(authService, oauthProviders, cfg.OAuthRedirectBaseURL),
		Children:   handlers.NewChildHandler(childService, bookService),
		Books:      handlers.NewBookHandler(bookService),
		Prizes:     handlers.NewPrizeHandler(prizeService),
	}

	// Start background jobs
	scheduler, err := service.NewScheduler(authService, bookService, cfg.ReconcileSchedule)
	if err != nil {
		log.Fatalf("Failed to schedule jobs: %v", err)
	}
	scheduler.Start()

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      router.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	<-scheduler.Stop().Done()
}
