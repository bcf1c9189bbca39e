// Package main is the entrypoint for the Pictora API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/pictora/pictora/internal/activity"
	"github.com/pictora/pictora/internal/cache"
	"github.com/pictora/pictora/internal/config"
	"github.com/pictora/pictora/internal/handler"
	"github.com/pictora/pictora/internal/metrics"
	"github.com/pictora/pictora/internal/middleware"
	"github.com/pictora/pictora/internal/repository"
	"github.com/pictora/pictora/internal/server"
	"github.com/pictora/pictora/internal/service"
	"github.com/pictora/pictora/internal/storage"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	if cfg.MigrateOnStart {
		if err := repository.Migrate(cfg.DatabaseURL); err != nil {
			logger.Error("failed to apply migrations",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			)
			os.Exit(1)
		}
		logger.Info("database migrations applied")
	}

	repo, err := repository.New(ctx, cfg.DatabaseURL, repository.PoolOptions{
		MaxConns: cfg.DatabaseMaxConns,
		MinConns: cfg.DatabaseMinConns,
	})
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to database")

	cacheClient, err := cache.New(ctx, cfg.RedisURL, cache.Options{
		PoolSize:     cfg.RedisPoolSize,
		MinIdleConns: cfg.RedisMinIdleConns,
	})
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		repo.Close()
		os.Exit(1)
	}
	logger.Info("connected to Redis")

	storageCfg := storage.ConfigFrom(cfg)
	mediaStore, err := initStorage(ctx, storageCfg)
	if err != nil {
		logger.Error("failed to initialize media storage",
			slog.String("error", err.Error()),
			slog.String("endpoint", storageCfg.Endpoint),
			slog.String("bucket", storageCfg.Bucket),
		)
		_ = cacheClient.Close()
		repo.Close()
		os.Exit(1)
	}
	logger.Info("media storage ready", "bucket", storageCfg.Bucket)

	recorder := metrics.NewInMemory()
	publisher := activity.NewPublisher(cacheClient.Client(), logger, recorder)

	avatarService := service.NewAvatarService(cfg.BaseURL)
	fileService := service.NewFileService(mediaStore, cfg.BaseURL, recorder, logger)
	accountService := service.NewAccountService(repo, repo, cacheClient, avatarService, cfg.SessionTTL, recorder, logger)
	userService := service.NewUserService(repo, fileService, logger)
	postService := service.NewPostService(repo, repo, repo, cacheClient, fileService, publisher, recorder, logger)

	handlers := routeHandlers{
		root:     handler.New(),
		health:   handler.NewHealthHandler(repo, cacheClient, mediaStore),
		metrics:  handler.NewMetricsHandler(recorder),
		accounts: handler.NewAccountHandler(accountService, handler.CookieConfig{
			Secure: cfg.IsProduction(),
			Domain: cfg.CookieDomain,
		}, logger),
		users:    handler.NewUserHandler(userService, cfg.MaxUploadSize, logger),
		posts:    handler.NewPostHandler(postService, cfg.MaxUploadSize, logger),
		files:    handler.NewFileHandler(fileService, cfg.MaxUploadSize, logger),
		avatars:  handler.NewAvatarHandler(avatarService),
	}

	r := setupRouter(handlers, accountService, cacheClient, cfg, logger)

	srv := server.New(r, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		IdleTimeout:     cfg.IdleTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	// Hooks run LIFO: Redis closes before Postgres.
	srv.OnShutdown("postgres", func(context.Context) error {
		repo.Close()
		return nil
	})
	srv.OnShutdown("redis", func(context.Context) error {
		return cacheClient.Close()
	})

	if cfg.ActivityConsumerEnabled {
		consumer := activity.NewConsumer(cacheClient.Client(), repo, logger, activity.NewConsumerID(), recorder)
		consumer.SetBatchSize(cfg.ActivityBatchSize)
		srv.Go("activity-consumer", consumer.Run)
		srv.OnShutdown("activity-consumer", consumer.Shutdown)
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"base_url", cfg.BaseURL,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// initStorage connects to the object store and makes sure the bucket exists.
func initStorage(ctx context.Context, cfg storage.Config) (*storage.MinioStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := storage.NewMinIOClient(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := storage.EnsureBucket(ctx, client, cfg); err != nil {
		return nil, err
	}

	return storage.NewMinioStoreWithClient(client, cfg.Bucket)
}

type routeHandlers struct {
	root     *handler.Handler
	health   *handler.HealthHandler
	metrics  *handler.MetricsHandler
	accounts *handler.AccountHandler
	users    *handler.UserHandler
	posts    *handler.PostHandler
	files    *handler.FileHandler
	avatars  *handler.AvatarHandler
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	h routeHandlers,
	sessions middleware.SessionResolver,
	limiter middleware.RateLimiter,
	cfg *config.Config,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()
	corsCfg.AllowLocalhost = cfg.IsDevelopment()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()}))
	r.Use(middleware.CORS(corsCfg))

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:      logger,
		Limiter:     limiter,
		APIEnabled:  cfg.RateLimitAPIEnabled,
		APIRPM:      cfg.RateLimitAPIRPM,
		APIBurst:    cfg.RateLimitAPIBurst,
		AuthEnabled: cfg.RateLimitAuthEnabled,
		AuthRPS:     cfg.RateLimitAuthRPS,
		AuthBurst:   cfg.RateLimitAuthBurst,
	}
	jsonBody := middleware.MaxBodySize(cfg.MaxRequestBodySize)

	r.Get("/", h.root.Hello)
	r.Get("/healthz", h.health.Healthz)
	r.Get("/readyz", h.health.Readyz)
	r.Get("/metrics", h.metrics.Metrics)

	// Browser sign-in form
	r.With(middleware.RateLimitIP(rateLimitCfg, "signin"), jsonBody).Post("/sign-in", h.accounts.SubmitSignInForm)

	r.Route("/api/v1", func(r chi.Router) {
		// Public
		r.With(middleware.RateLimitIP(rateLimitCfg, "signup"), jsonBody).Post("/accounts", h.accounts.SignUp)
		r.With(middleware.RateLimitIP(rateLimitCfg, "signin"), jsonBody).Post("/sessions", h.accounts.CreateSession)
		r.Get("/storage/files/{id}/preview", h.files.Preview)
		r.Get("/avatars/initials", h.avatars.Initials)

		// Session required
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(middleware.AuthConfig{Logger: logger, Sessions: sessions}))
			r.Use(middleware.RateLimitSession(rateLimitCfg))

			r.Get("/account", h.accounts.Current)
			r.Delete("/sessions/current", h.accounts.SignOut)
			r.Delete("/sessions", h.accounts.SignOutEverywhere)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", h.users.List)
				r.Get("/{id}", h.users.Get)
				r.Patch("/{id}", h.users.Update)
			})

			r.Route("/posts", func(r chi.Router) {
				r.Get("/", h.posts.List)
				r.Post("/", h.posts.Create)
				r.Get("/recent", h.posts.Recent)
				r.Get("/search", h.posts.Search)
				r.Get("/{id}", h.posts.Get)
				r.Get("/{id}/activity", h.posts.Activity)
				r.Patch("/{id}", h.posts.Update)
				r.Delete("/{id}", h.posts.Delete)
				r.With(jsonBody).Put("/{id}/likes", h.posts.Like)
			})

			r.With(jsonBody).Post("/saves", h.posts.Save)
			r.Delete("/saves/{id}", h.posts.DeleteSave)

			r.Post("/storage/files", h.files.Upload)
			r.Delete("/storage/files/{id}", h.files.Delete)
		})
	})

	r.NotFound(h.root.NotFound)
	r.MethodNotAllowed(h.root.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
