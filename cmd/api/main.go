package main

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "scholartrack/docs" // This is for Swagger
	"scholartrack/internal/auth"
	"scholartrack/internal/capacity"
	"scholartrack/internal/config"
	"scholartrack/internal/database"
	"scholartrack/internal/email"
	"scholartrack/internal/events"
	"scholartrack/internal/handlers"
	"scholartrack/internal/locks"
	"scholartrack/internal/logger"
	"scholartrack/internal/middleware"
	"scholartrack/internal/models"
	"scholartrack/internal/repository"
	"scholartrack/internal/scheduler"
	"scholartrack/internal/securestore"
	"scholartrack/internal/service"
	"scholartrack/internal/vault"

	httpSwagger "github.com/swaggo/http-swagger"
)

// @title ScholarTrack API
// @version 1.0
// @description Backend API for the ScholarTrack scholarship application lifecycle engine

// @contact.name API Support
// @contact.email support@scholartrack.edu

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logger
	logger.Setup(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("Starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"env", cfg.App.Env,
		"log_level", cfg.Log.Level,
	)

	// Initialize database
	db, err := database.New(&cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func(db *database.Database) {
		err := db.Close()
		if err != nil {
			slog.Error("Failed to close database connection", "error", err)
		}
	}(db)

	slog.Info("Database connection established")

	// Run database migrations
	migrator := database.NewMigrationExecutor(db.DB)
	if err := migrator.RunMigrations("./migrations"); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database migrations completed")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.DB)
	roleRepo := repository.NewRoleRepository(db.DB)
	auditRepo := repository.NewAuditRepository(db.DB)
	scholarshipRepo := repository.NewScholarshipRepository(db.DB)
	applicationRepo := repository.NewApplicationRepository(db.DB)
	interviewRepo := repository.NewInterviewRepository(db.DB)
	remarkRepo := repository.NewRemarkRepository(db.DB)
	documentRepo := repository.NewDocumentRepository(db.DB)
	eligibilityRepo := repository.NewEligibilityRepository(db.DB)

	// Initialize the remark cipher. With Vault enabled the data encryption
	// key is unwrapped through the transit engine; without it a key derived
	// from the JWT secret keeps development setups working.
	var remarkCipher *securestore.RemarkCipher
	if cfg.Vault.Enabled {
		slog.Info("Vault is enabled - unwrapping remark encryption key")
		vaultClient, err := vault.NewClient(&vault.Config{
			Address:      cfg.Vault.Address,
			Token:        cfg.Vault.Token,
			TransitMount: cfg.Vault.TransitMount,
		})
		if err != nil {
			slog.Error("Failed to initialize Vault client", "error", err)
			os.Exit(1)
		}
		if err := vaultClient.Health(); err != nil {
			slog.Error("Vault is not ready", "error", err)
			os.Exit(1)
		}
		remarkCipher, err = securestore.NewWithVault(vaultClient, cfg.Vault.KeyName)
		if err != nil {
			slog.Error("Failed to initialize remark cipher", "error", err)
			os.Exit(1)
		}
		slog.Info("Remark cipher initialized", "vault_addr", cfg.Vault.Address)
	} else {
		slog.Warn("Vault is disabled - using a static remark encryption key derived from the JWT secret")
		derived := sha256.Sum256([]byte(cfg.JWT.Secret))
		remarkCipher, err = securestore.NewWithStaticKey(derived[:])
		if err != nil {
			slog.Error("Failed to initialize remark cipher", "error", err)
			os.Exit(1)
		}
	}

	// Initialize services
	authService := auth.NewService(&cfg.JWT)
	emailService := email.NewService(&cfg.Email)
	userService := service.NewUserService(userRepo, roleRepo, authService)
	scholarshipService := service.NewScholarshipService(scholarshipRepo, auditRepo)

	// Domain events feed applicant notifications
	dispatcher := events.NewDispatcher()
	notifier := email.NewNotifier(emailService, userRepo, scholarshipRepo)
	notifier.Register(dispatcher)

	// The application and interview services share one keyed mutex so
	// lifecycle transitions and interview operations on the same
	// application never interleave.
	ledger := capacity.NewLedger(db.DB)
	keyed := locks.NewKeyed()
	applicationService := service.NewApplicationService(
		applicationRepo,
		scholarshipRepo,
		userRepo,
		remarkRepo,
		interviewRepo,
		auditRepo,
		documentRepo,
		eligibilityRepo,
		ledger,
		remarkCipher,
		keyed,
		dispatcher,
	)
	interviewService := service.NewInterviewService(interviewRepo, applicationRepo, userRepo, auditRepo, keyed, dispatcher)

	// Initialize scheduler
	schedulerService := scheduler.NewScheduler(applicationRepo, scholarshipRepo, userRepo, remarkRepo, emailService, &cfg.Scheduler)
	schedulerService.Start()
	defer schedulerService.Stop()

	// Initialize middleware
	authMw := middleware.NewAuthMiddleware(authService)
	rbacMw := middleware.NewRBACMiddleware(db.DB)
	corsMw := middleware.NewCORSMiddleware(&cfg.CORS)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit)
	auditMw := middleware.NewAuditMiddleware(db.DB)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, auditMw)
	applicationHandler := handlers.NewApplicationHandler(applicationService, userService)
	interviewHandler := handlers.NewInterviewHandler(interviewService, userService)
	scholarshipHandler := handlers.NewScholarshipHandler(scholarshipService, userService)
	auditHandler := handlers.NewAuditHandler(auditRepo)

	staffOnly := rbacMw.RequireAnyRole(models.RoleOSASStaff, models.RoleAdmin)
	adminOnly := rbacMw.RequireRole(models.RoleAdmin)

	// Setup router
	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)

	// Authenticated routes
	mux.Handle("GET /api/v1/auth/me", authMw.Authenticate(http.HandlerFunc(authHandler.Me)))

	// Scholarship routes
	mux.Handle("GET /api/v1/scholarships", authMw.Authenticate(http.HandlerFunc(scholarshipHandler.List)))
	mux.Handle("GET /api/v1/scholarships/{id}", authMw.Authenticate(http.HandlerFunc(scholarshipHandler.Get)))
	mux.Handle("POST /api/v1/scholarships",
		authMw.Authenticate(staffOnly(http.HandlerFunc(scholarshipHandler.Create))))
	mux.Handle("POST /api/v1/scholarships/{id}/publish",
		authMw.Authenticate(staffOnly(http.HandlerFunc(scholarshipHandler.Publish))))
	mux.Handle("POST /api/v1/scholarships/{id}/activate",
		authMw.Authenticate(staffOnly(http.HandlerFunc(scholarshipHandler.Activate))))
	mux.Handle("POST /api/v1/scholarships/{id}/deactivate",
		authMw.Authenticate(staffOnly(http.HandlerFunc(scholarshipHandler.Deactivate))))
	mux.Handle("GET /api/v1/scholarships/{id}/applications",
		authMw.Authenticate(staffOnly(http.HandlerFunc(applicationHandler.ListByScholarship))))

	// Application lifecycle routes. Role checks beyond the route guard live
	// in the transition allow-list of the service layer.
	mux.Handle("POST /api/v1/applications", authMw.Authenticate(http.HandlerFunc(applicationHandler.Create)))
	mux.Handle("GET /api/v1/applications",
		authMw.Authenticate(staffOnly(http.HandlerFunc(applicationHandler.ListByStatus))))
	mux.Handle("GET /api/v1/applications/mine", authMw.Authenticate(http.HandlerFunc(applicationHandler.ListMine)))
	mux.Handle("GET /api/v1/applications/{id}", authMw.Authenticate(http.HandlerFunc(applicationHandler.Get)))
	mux.Handle("POST /api/v1/applications/{id}/submit",
		authMw.Authenticate(http.HandlerFunc(applicationHandler.Submit)))
	mux.Handle("POST /api/v1/applications/{id}/resubmit",
		authMw.Authenticate(http.HandlerFunc(applicationHandler.Resubmit)))
	mux.Handle("POST /api/v1/applications/{id}/reviewer",
		authMw.Authenticate(staffOnly(http.HandlerFunc(applicationHandler.AssignReviewer))))
	mux.Handle("POST /api/v1/applications/{id}/verification",
		authMw.Authenticate(staffOnly(http.HandlerFunc(applicationHandler.BeginVerification))))
	mux.Handle("POST /api/v1/applications/{id}/verify",
		authMw.Authenticate(staffOnly(http.HandlerFunc(applicationHandler.Verify))))
	mux.Handle("POST /api/v1/applications/{id}/incomplete",
		authMw.Authenticate(staffOnly(http.HandlerFunc(applicationHandler.FlagIncomplete))))
	mux.Handle("POST /api/v1/applications/{id}/evaluation",
		authMw.Authenticate(staffOnly(http.HandlerFunc(applicationHandler.BeginEvaluation))))
	mux.Handle("POST /api/v1/applications/{id}/decision",
		authMw.Authenticate(staffOnly(http.HandlerFunc(applicationHandler.Decide))))
	mux.Handle("POST /api/v1/applications/{id}/revoke",
		authMw.Authenticate(adminOnly(http.HandlerFunc(applicationHandler.Revoke))))
	mux.Handle("PUT /api/v1/applications/{id}/stipend",
		authMw.Authenticate(staffOnly(http.HandlerFunc(applicationHandler.RecordStipend))))
	mux.Handle("PUT /api/v1/applications/{id}/renewal",
		authMw.Authenticate(staffOnly(http.HandlerFunc(applicationHandler.SetRenewalStatus))))
	mux.Handle("GET /api/v1/applications/{id}/remarks",
		authMw.Authenticate(staffOnly(http.HandlerFunc(applicationHandler.GetRemarks))))

	// Interview routes
	mux.Handle("POST /api/v1/applications/{id}/interview",
		authMw.Authenticate(staffOnly(http.HandlerFunc(interviewHandler.Schedule))))
	mux.Handle("GET /api/v1/applications/{id}/interview",
		authMw.Authenticate(http.HandlerFunc(interviewHandler.Get)))
	mux.Handle("POST /api/v1/applications/{id}/interview/reschedule",
		authMw.Authenticate(http.HandlerFunc(interviewHandler.Reschedule)))
	mux.Handle("POST /api/v1/applications/{id}/interview/complete",
		authMw.Authenticate(staffOnly(http.HandlerFunc(interviewHandler.Complete))))

	// Admin routes
	mux.Handle("POST /api/v1/admin/users/{id}/roles",
		authMw.Authenticate(adminOnly(http.HandlerFunc(authHandler.GrantRole))))
	mux.Handle("GET /api/v1/admin/audit-logs",
		authMw.Authenticate(adminOnly(
			auditMw.Log("audit.view", "audit_logs", "Audit log accessed")(
				http.HandlerFunc(auditHandler.ListAuditLogs)))))

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.HealthCheck(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, err := w.Write([]byte(`{"status":"unhealthy","database":"error"}`))
			if err != nil {
				slog.Error("Failed to write health check response", "error", err)
				return
			}
			return
		}
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte(`{"status":"healthy","version":"` + cfg.App.Version + `"}`))
		if err != nil {
			slog.Error("Failed to write health check response", "error", err)
			return
		}
	})

	// Swagger documentation
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	// Apply global middleware
	handler := middleware.LoggingMiddleware(
		middleware.SecurityHeaders(
			corsMw.Handler(
				rateLimiter.Limit(mux),
			),
		),
	)

	// Create server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.TimeoutRead,
		WriteTimeout: cfg.Server.TimeoutWrite,
		IdleTimeout:  cfg.Server.TimeoutIdle,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Server starting", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	// Let in-flight notification handlers finish before exiting
	dispatcher.Wait()

	slog.Info("Server stopped")
}
