package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yourorg/projectflow/internal/api"
	"github.com/yourorg/projectflow/internal/guard"
	"github.com/yourorg/projectflow/internal/handler"
	"github.com/yourorg/projectflow/internal/infrastructure/logger"
	"github.com/yourorg/projectflow/internal/infrastructure/redis"
	"github.com/yourorg/projectflow/internal/observability/metrics"
	"github.com/yourorg/projectflow/internal/observability/tracing"
	"github.com/yourorg/projectflow/internal/repository"
	"github.com/yourorg/projectflow/internal/security/audit"
	"github.com/yourorg/projectflow/internal/security/middleware"
	"github.com/yourorg/projectflow/internal/security/ratelimit"
	"github.com/yourorg/projectflow/internal/session"
	"github.com/yourorg/projectflow/internal/worker"
	"github.com/yourorg/projectflow/pkg/config"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting projectflow gateway", slog.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Tracing (no-op unless an OTLP endpoint is configured)
	shutdownTracing, err := tracing.Init(ctx, log, "projectflow-gateway", cfg.Environment)
	if err != nil {
		log.Warn("tracing disabled", slog.String("error", err.Error()))
	}

	// 4. Optional Redis: session persistence and cache snapshots fall back
	// to local files when no Redis is configured.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(cfg.RedisURL)
		if err != nil {
			log.Error("failed to connect to Redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer redisClient.Close()
	}

	// 5. Session store with persisted operator session
	var persist session.Persistence
	if redisClient != nil {
		persist = session.NewRedisStore(redisClient, "projectflow:session")
	} else {
		persist, err = session.NewFileStore(cfg.SessionFile)
		if err != nil {
			log.Error("failed to prepare session file", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}
	sessions := session.NewStore(persist, log)
	if err := sessions.Restore(ctx); err != nil {
		log.Warn("no session restored, operator must log in", slog.String("error", err.Error()))
	}

	// 6. Remote API client and caches
	apiClient := api.NewClient(cfg.APIBaseURL, sessions, log)

	var snapshots repository.SnapshotStore
	if redisClient != nil {
		snapshots = repository.NewRedisSnapshot(redisClient, time.Hour)
	}
	users := repository.NewUserDirectory(apiClient, log)
	projects := repository.NewProjectRepository(apiClient, users, snapshots, log)
	projects.Warm(ctx)
	if sessions.Snapshot().Authenticated {
		if err := projects.FetchAll(ctx); err != nil {
			log.Warn("initial project fetch failed", slog.String("error", err.Error()))
		}
	}

	// 7. Security components
	rateLimiter := ratelimit.NewLimiter(cfg.RateLimitPerMinute, time.Minute)
	auditLogger := audit.NewLogger(log)

	// 8. Handlers
	renewalWindow := time.Duration(cfg.RenewalWarningDays) * 24 * time.Hour
	trackerHandler := handler.NewTrackerHandler(projects, log)
	loginHandler := handler.NewLoginHandler(sessions, apiClient, auditLogger, log, guard.DefaultLanding)
	logoutHandler := handler.NewLogoutHandler(sessions, auditLogger)
	dashboardHandler := handler.NewDashboardHandler(sessions, projects, renewalWindow, log)
	allProjectsHandler := handler.NewAllProjectsHandler(projects, log)
	approvalQueueHandler := handler.NewApprovalQueueHandler(projects, log)
	createHandler := handler.NewCreateProjectHandler(sessions, projects, auditLogger, log)
	detailHandler := handler.NewProjectDetailHandler(projects, log)
	statusHandler := handler.NewStatusUpdateHandler(sessions, projects, auditLogger, log)
	noteHandler := handler.NewNoteHandler(sessions, projects, auditLogger, log)
	credentialHandler := handler.NewCredentialHandler(sessions, projects, auditLogger, log)
	datesHandler := handler.NewProjectDatesHandler(sessions, projects, log)
	approveHandler := handler.NewApproveHandler(sessions, projects, auditLogger, log)
	reassignHandler := handler.NewReassignHandler(sessions, projects, log)
	deleteHandler := handler.NewDeleteHandler(sessions, projects, auditLogger, log)
	rejectHandler := handler.NewRejectHandler(sessions, projects, auditLogger, log)
	developersHandler := handler.NewDevelopersHandler(sessions, users, auditLogger, log)
	healthHandler := handler.NewHealthHandler(projects, pinger(redisClient))

	// 9. Routes
	mux := http.NewServeMux()
	mux.Handle("GET /", &handler.RootHandler{})
	mux.Handle("GET /track", trackerHandler)
	mux.Handle("POST /login", loginHandler)
	mux.Handle("POST /logout", logoutHandler)
	mux.Handle("GET /dashboard", dashboardHandler)
	mux.Handle("GET /all-projects", allProjectsHandler)
	mux.Handle("GET /projects/approval", approvalQueueHandler)
	mux.Handle("POST /projects/new", createHandler)
	mux.Handle("GET /projects/{id}", detailHandler)
	mux.Handle("PUT /projects/{id}/status", statusHandler)
	mux.Handle("POST /projects/{id}/notes", noteHandler)
	mux.Handle("POST /projects/{id}/credentials", credentialHandler)
	mux.Handle("PUT /projects/{id}/{field}", datesHandler)
	mux.Handle("PUT /projects/{id}/approve", approveHandler)
	mux.Handle("PUT /projects/{id}/reassign", reassignHandler)
	mux.Handle("DELETE /projects/{id}", deleteHandler)
	mux.Handle("POST /projects/{id}/reject", rejectHandler)
	mux.HandleFunc("GET /manage-developers", developersHandler.List)
	mux.HandleFunc("POST /manage-developers", developersHandler.Create)
	mux.HandleFunc("PUT /manage-developers/{id}/password", developersHandler.ResetPassword)
	mux.HandleFunc("DELETE /manage-developers/{id}", developersHandler.Delete)
	mux.Handle("GET /health", healthHandler)
	mux.Handle("/metrics", promhttp.Handler())

	// 10. Middleware chain: request id -> CORS -> rate limit -> content
	// type -> metrics -> guard -> routes, traced end to end.
	var root http.Handler = mux
	root = middleware.Guard(sessions, auditLogger)(root)
	root = middleware.Maintenance(root)
	root = metrics.HTTPMetricsMiddleware(routeLabel)(root)
	root = middleware.RequireJSON(root)
	root = middleware.RateLimit(rateLimiter, log)(root)
	root = middleware.CORS(cfg.CORSAllowedOrigins)(root)
	root = middleware.RequestID(root)
	root = otelhttp.NewHandler(root, "gateway")

	// 11. Background refresh worker
	refreshWorker := worker.NewRefreshWorker(
		projects,
		log,
		time.Duration(cfg.RefreshIntervalMinutes)*time.Minute,
		renewalWindow,
	)
	go refreshWorker.Start(ctx)

	// 12. HTTP server with graceful shutdown
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("gateway listening",
		slog.Int("port", cfg.ServerPort),
		slog.String("api_base_url", cfg.APIBaseURL),
		slog.Int("rate_limit", cfg.RateLimitPerMinute),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
		}
	}()

	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel()
	rateLimiter.Stop()
	if shutdownTracing != nil {
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Error("tracing shutdown error", slog.String("error", err.Error()))
		}
	}
	log.Info("gateway stopped")
}

// routeLabel collapses request paths onto a bounded metric label set: the
// navigation route name when one matches, the literal path for the fixed
// operational endpoints, "other" for the rest.
func routeLabel(path string) string {
	if route, ok := guard.Match(path); ok {
		return route.Name
	}
	switch path {
	case "/health", "/metrics":
		return path
	}
	return "other"
}

// pinger keeps the health handler's interface nil when Redis is absent; a
// typed nil *redis.Client would otherwise read as non-nil.
func pinger(c *redis.Client) handler.Pinger {
	if c == nil {
		return nil
	}
	return c
}
