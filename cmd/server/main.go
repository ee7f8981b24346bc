package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	authgin "github.com/PaulFidika/subgate/adapters/gin"
	"github.com/PaulFidika/subgate/config"
	"github.com/PaulFidika/subgate/core"
	"github.com/PaulFidika/subgate/identity"
	"github.com/PaulFidika/subgate/logging"
	"github.com/PaulFidika/subgate/ratelimit"
	memorylimiter "github.com/PaulFidika/subgate/ratelimit/memory"
	redislimiter "github.com/PaulFidika/subgate/ratelimit/redis"
	"github.com/PaulFidika/subgate/session"
	"github.com/PaulFidika/subgate/web"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := run(); err != nil {
		logrus.WithError(err).Fatal("server exited")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Env: cfg.Env})
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	accept := cfg.Accept()
	keys, err := session.NewCachedKeySource(ctx, accept.JWKSURL, accept)
	if err != nil {
		return fmt.Errorf("jwks cache: %w", err)
	}
	verifier, err := session.NewVerifier(accept, keys)
	if err != nil {
		return fmt.Errorf("session verifier: %w", err)
	}

	users, err := identity.NewClient(identity.Config{
		APIURL:    cfg.Provider.APIURL,
		SecretKey: cfg.Provider.SecretKey,
		Timeout:   cfg.Provider.Timeout,
	})
	if err != nil {
		return fmt.Errorf("provider client: %w", err)
	}
	svc, err := core.NewService(users, core.Config{
		ProviderTimeout: cfg.Provider.Timeout,
		Decisions:       core.NewLogrusDecisionLogger(log),
	})
	if err != nil {
		return fmt.Errorf("service: %w", err)
	}

	limiter, closeLimiter, err := buildLimiter(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	defer closeLimiter()

	engine, err := authgin.NewEngine(authgin.Options{
		Service:     svc,
		Sessions:    verifier,
		Limiter:     limiter,
		Logger:      log,
		Language:    &authgin.LanguageConfig{Supported: cfg.Page.Languages, Default: cfg.Page.DefaultLanguage},
		Page:        web.Meta{Title: cfg.Page.Title, Description: cfg.Page.Description},
		ShowDetails: !cfg.Production(),
	})
	if err != nil {
		return fmt.Errorf("http engine: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.ServerAddress).Info("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	}
}

func buildLimiter(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (ratelimit.Limiter, func(), error) {
	limits := map[string]ratelimit.Limit{
		ratelimit.BucketSubscriptionCheck: {Limit: cfg.RateLimit.Limit, Window: cfg.RateLimit.Window},
	}
	if cfg.RateLimit.RedisURL != "" {
		rdb, err := redislimiter.NewClient(cfg.RateLimit.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.WithError(err).Warn("redis unreachable at startup; limiter fails open until it recovers")
		}
		return redislimiter.New(rdb, "subgate:rl:", limits), func() { _ = rdb.Close() }, nil
	}

	mem := memorylimiter.New(limits)
	sched := cron.New()
	if _, err := sched.AddFunc("@every 1m", mem.Sweep); err != nil {
		return nil, nil, err
	}
	sched.Start()
	return mem, func() { <-sched.Stop().Done() }, nil
}
