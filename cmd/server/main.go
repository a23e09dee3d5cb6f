package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tripnest/internal/config"
	"tripnest/internal/database"
	"tripnest/internal/handlers"
	"tripnest/internal/repository"
	"tripnest/internal/security"
	"tripnest/internal/service"

	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

func main() {
	// Load .env if present; real env vars win
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env: %v", err)
	}

	cfg := config.Load()

	// Initialize database (supports sqlite, postgres, mysql)
	db, err := database.OpenFromConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	outingRepo := repository.NewOutingRepository(db)
	requestRepo := repository.NewActivityRequestRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	itineraryRepo := repository.NewItineraryRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)
	discountRepo := repository.NewDiscountRepository(db)

	// Initialize services
	authService := service.NewAuthService(userRepo, cfg.SessionDuration)
	familyService := service.NewFamilyService(userRepo)
	outingService := service.NewOutingService(outingRepo, requestRepo, itineraryRepo, evaluationRepo, familyService)
	votingService := service.NewVotingService(outingRepo, requestRepo, activityRepo, familyService)
	settlementService := service.NewSettlementService(outingRepo, requestRepo, activityRepo, discountRepo, familyService)
	shareService := service.NewShareService(outingRepo, familyService, cfg.SessionSecret, cfg.ShareTokenTTL)

	emailService, err := service.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.BaseURL, cfg.EmailDebug)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}
	if !emailService.IsEnabled() {
		log.Println("Email service disabled (SES_FROM_EMAIL not set)")
	}

	var googleOAuth *oauth2.Config
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		googleOAuth = &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		}
	}

	// Initialize handlers
	limiter := security.NewRateLimiter(20, time.Minute)
	csrf := security.NewCSRFGenerator(cfg.SessionSecret)
	middleware := handlers.NewMiddleware(authService, limiter, csrf)
	authHandler := handlers.NewAuthHandler(authService, csrf, googleOAuth, googleUserInfoURL, cfg.BaseURL)
	familyHandler := handlers.NewFamilyHandler(familyService)
	outingHandler := handlers.NewOutingHandler(outingService)
	activityHandler := handlers.NewActivityHandler(votingService, activityRepo)
	settlementHandler := handlers.NewSettlementHandler(settlementService)
	shareHandler := handlers.NewShareHandler(shareService, emailService)

	// Setup routes
	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("POST /api/auth/register", middleware.RateLimit(authHandler.Register))
	mux.HandleFunc("POST /api/auth/login", middleware.RateLimit(authHandler.Login))
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.HandleFunc("GET /auth/google/start", authHandler.StartOAuth)
	mux.HandleFunc("GET /auth/google/callback", authHandler.OAuthCallback)
	mux.HandleFunc("GET /api/shared/{token}", shareHandler.Resolve)

	// Account and family
	mux.HandleFunc("GET /api/auth/me", middleware.RequireAuth(authHandler.Me))
	mux.HandleFunc("GET /api/family/members", middleware.RequireAuth(familyHandler.ListMembers))
	mux.HandleFunc("POST /api/family/dependents", middleware.RequireAuth(middleware.CSRFProtect(familyHandler.AddDependent)))

	// Activity catalog
	mux.HandleFunc("GET /api/activities", middleware.RequireAuth(activityHandler.ListCatalog))

	// Outing lifecycle
	mux.HandleFunc("POST /api/outings", middleware.RequireAuth(middleware.CSRFProtect(outingHandler.Create)))
	mux.HandleFunc("GET /api/outings", middleware.RequireAuth(outingHandler.List))
	mux.HandleFunc("GET /api/outings/{outingID}", middleware.RequireAuth(outingHandler.Get))
	mux.HandleFunc("GET /api/outings/{outingID}/step", middleware.RequireAuth(outingHandler.Step))
	mux.HandleFunc("PUT /api/outings/{outingID}/participants", middleware.RequireAuth(middleware.CSRFProtect(outingHandler.UpdateParticipants)))
	mux.HandleFunc("POST /api/outings/{outingID}/cancel", middleware.RequireAuth(middleware.CSRFProtect(outingHandler.Cancel)))
	mux.HandleFunc("POST /api/outings/{outingID}/start", middleware.RequireAuth(middleware.CSRFProtect(outingHandler.Start)))
	mux.HandleFunc("POST /api/outings/{outingID}/complete", middleware.RequireAuth(middleware.CSRFProtect(outingHandler.Complete)))

	// Proposals and voting
	mux.HandleFunc("POST /api/outings/{outingID}/requests", middleware.RequireAuth(middleware.CSRFProtect(activityHandler.Propose)))
	mux.HandleFunc("GET /api/outings/{outingID}/requests", middleware.RequireAuth(activityHandler.ListRequests))
	mux.HandleFunc("GET /api/outings/{outingID}/requests/{activityID}", middleware.RequireAuth(activityHandler.GetRequest))
	mux.HandleFunc("POST /api/outings/{outingID}/requests/{activityID}/vote", middleware.RequireAuth(middleware.CSRFProtect(activityHandler.Vote)))
	mux.HandleFunc("POST /api/outings/{outingID}/requests/{activityID}/confirm", middleware.RequireAuth(middleware.CSRFProtect(activityHandler.Confirm)))
	mux.HandleFunc("POST /api/outings/{outingID}/requests/{activityID}/return", middleware.RequireAuth(middleware.CSRFProtect(activityHandler.ReturnToVoting)))

	// Itinerary, evaluation, memories
	mux.HandleFunc("PUT /api/outings/{outingID}/itinerary", middleware.RequireAuth(middleware.CSRFProtect(outingHandler.SaveItinerary)))
	mux.HandleFunc("GET /api/outings/{outingID}/itinerary", middleware.RequireAuth(outingHandler.GetItinerary))
	mux.HandleFunc("POST /api/outings/{outingID}/evaluation", middleware.RequireAuth(middleware.CSRFProtect(outingHandler.SubmitEvaluation)))
	mux.HandleFunc("POST /api/outings/{outingID}/memories", middleware.RequireAuth(middleware.CSRFProtect(outingHandler.AddMemory)))
	mux.HandleFunc("GET /api/outings/{outingID}/memories", middleware.RequireAuth(outingHandler.ListMemories))

	// Settlement
	mux.HandleFunc("GET /api/outings/{outingID}/settlement", middleware.RequireAuth(settlementHandler.Get))
	mux.HandleFunc("POST /api/outings/{outingID}/settlement", middleware.RequireAuth(middleware.CSRFProtect(settlementHandler.Settle)))

	// Sharing
	mux.HandleFunc("POST /api/outings/{outingID}/share", middleware.RequireAuth(middleware.CSRFProtect(shareHandler.Enable)))
	mux.HandleFunc("DELETE /api/outings/{outingID}/share", middleware.RequireAuth(middleware.CSRFProtect(shareHandler.Disable)))

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background session cleanup
	go cleanupExpiredSessions(authService)

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
		log.Printf("Shutdown error: %v", err)
	}
}

// cleanupExpiredSessions periodically removes expired sessions
func cleanupExpiredSessions(authService *service.AuthService) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		if err := authService.CleanupExpiredSessions(); err != nil {
			log.Printf("Error cleaning up expired sessions: %v", err)
		}
	}
}
