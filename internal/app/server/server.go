// Package server assembles the application: configuration, stores,
// services, and the HTTP router.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"flow4ops/internal/domain/compliance"
	"flow4ops/internal/domain/directory"
	"flow4ops/internal/domain/identity"
	"flow4ops/internal/domain/leave"
	"flow4ops/internal/domain/notifications"
	"flow4ops/internal/platform/config"
	cryptoutil "flow4ops/internal/platform/crypto"
	"flow4ops/internal/platform/db"
	"flow4ops/internal/platform/email"
	"flow4ops/internal/platform/metrics"
	"flow4ops/internal/platform/storage"
	"flow4ops/internal/transport/http/api"
	authhandler "flow4ops/internal/transport/http/handlers/auth"
	compliancehandler "flow4ops/internal/transport/http/handlers/compliance"
	dashboardhandler "flow4ops/internal/transport/http/handlers/dashboard"
	employeehandler "flow4ops/internal/transport/http/handlers/employee"
	fileshandler "flow4ops/internal/transport/http/handlers/files"
	hrhandler "flow4ops/internal/transport/http/handlers/hr"
	"flow4ops/internal/transport/http/middleware"
	"flow4ops/internal/web"
)

type App struct {
	Config  config.Config
	Log     *zap.Logger
	DB      *pgxpool.Pool
	Redis   *redis.Client
	Metrics *metrics.Collector
	Router  http.Handler
}

// New builds a ready-to-serve application from configuration. Redis is
// optional; without it rate limiting falls back to a per-process
// counter.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	}

	cryptoSvc, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("crypto: %w", err)
	}

	renderer, err := web.NewRenderer()
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("templates: %w", err)
	}

	identityStore := identity.NewStore(pool)
	identitySvc := identity.NewService(identityStore, cryptoSvc, cfg.JWTSecret, cfg.AccessTokenTTL, cfg.SessionTTL, log)
	codec := identity.NewCodec(cfg.SessionHashKey, cfg.SessionBlockKey, cfg.Environment == "production")

	directoryStore := directory.NewStore(pool)
	objects := storage.NewPostgresStore(pool, cfg.BaseURL)

	formStore := compliance.NewStore(pool)
	formSvc := compliance.NewService(formStore, objects, directoryStore, cfg.UploadBucket, log)

	leaveStore := leave.NewStore(pool)
	leaveSvc := leave.NewService(leaveStore, directoryStore, log)

	mailer := email.New(cfg)
	reminderSvc := notifications.NewService(mailer, directoryStore, formStore, cfg.EmailFrom, cfg.BaseURL, log)

	collector := metrics.New()

	app := &App{
		Config:  cfg,
		Log:     log,
		DB:      pool,
		Redis:   redisClient,
		Metrics: collector,
	}

	var counter middleware.Counter
	if redisClient != nil {
		counter = middleware.NewRedisCounter(redisClient)
	} else {
		counter = middleware.NewMemoryCounter()
	}

	authH := authhandler.NewHandler(identitySvc, codec, renderer, log)
	employeeH := employeehandler.NewHandler(formSvc, formStore, leaveSvc, renderer, log)
	hrH := hrhandler.NewHandler(formSvc, leaveSvc, leaveStore, directoryStore, reminderSvc, renderer, log)
	submitH := compliancehandler.NewHandler(formSvc, renderer, cfg.MaxUploadBytes, log)
	filesH := fileshandler.NewHandler(objects, log)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(log, collector))
	router.Use(middleware.Recover(log))
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	// The global ceiling must clear the multipart upload limit plus its
	// framing overhead; the upload handler enforces the tighter bound.
	bodyCeiling := cfg.MaxBodyBytes
	if uploadCeiling := cfg.MaxUploadBytes + 64*1024; bodyCeiling < uploadCeiling {
		bodyCeiling = uploadCeiling
	}
	router.Use(middleware.BodyLimit(bodyCeiling))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute, counter, log))
	router.Use(middleware.LoadUser(codec, identitySvc, log))
	router.Use(middleware.Gate(directoryStore, log))

	router.Get("/healthz", app.handleHealthz)
	router.Get("/readyz", app.handleReadyz)
	router.Get("/metrics", app.handleMetrics)

	router.Get("/", dashboardhandler.Handle)
	router.Get("/dashboard", dashboardhandler.Handle)

	router.Get("/login", authH.HandleLoginPage)
	router.Post("/login", authH.HandleLogin)
	router.Post("/logout", authH.HandleLogout)
	router.Get("/auth/callback", authH.HandleCallback)
	router.Post("/auth/refresh", authH.HandleRefresh)

	router.Route("/employee", func(r chi.Router) {
		r.Get("/dashboard", employeeH.HandleDashboard)
		r.Get("/compliance", employeeH.HandleCompliance)
		r.Get("/leave", employeeH.HandleLeavePage)
		r.Post("/leave", employeeH.HandleLeaveCreate)
	})

	router.Route("/compliance", func(r chi.Router) {
		r.Get("/submit", submitH.HandleSubmitPage)
		r.Post("/submit", submitH.HandleSubmit)
	})

	router.Route("/hr", func(r chi.Router) {
		r.Use(hrhandler.RequireHR(directoryStore, log))
		r.Get("/dashboard", hrH.HandleDashboard)
		r.Get("/compliance", hrH.HandleCompliance)
		r.Post("/compliance", hrH.HandleComplianceCreate)
		r.Post("/compliance/remind", hrH.HandleComplianceRemind)
		r.Get("/compliance/export.pdf", hrH.HandleComplianceExport)
		r.Get("/leave", hrH.HandleLeave)
		r.Post("/leave/{id}/approve", hrH.HandleLeaveApprove)
		r.Post("/leave/{id}/deny", hrH.HandleLeaveDeny)
	})

	router.Get("/files/{bucket}/*", filesH.HandleGet)

	app.Router = router
	return app, nil
}

// Run blocks serving HTTP until the listener fails.
func (a *App) Run() error {
	a.Log.Info("server listening", zap.String("addr", a.Config.Addr))
	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func (a *App) Close() {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	a.DB.Close()
}

func (a *App) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReadyz checks the database and, when configured, Redis. Redis
// being down degrades rate limiting but does not block readiness.
func (a *App) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.DB.Ping(ctx); err != nil {
		http.Error(w, "db not ready", http.StatusServiceUnavailable)
		return
	}
	if a.Redis != nil {
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			a.Log.Warn("redis not reachable", zap.Error(err))
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (a *App) handleMetrics(w http.ResponseWriter, r *http.Request) {
	api.Success(w, a.Metrics.Snapshot(), "")
}
