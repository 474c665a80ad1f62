package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/homecare/internal/adapters/file"
	"github.com/aretw0/homecare/internal/adapters/redis"
	"github.com/aretw0/homecare/internal/config"
	"github.com/aretw0/homecare/pkg/adapters/memory"
	"github.com/aretw0/homecare/pkg/api"
	"github.com/aretw0/homecare/pkg/auth"
	"github.com/aretw0/homecare/pkg/domain"
	"github.com/aretw0/homecare/pkg/flows"
	"github.com/aretw0/homecare/pkg/observability"
	"github.com/aretw0/homecare/pkg/persistence/middleware"
	"github.com/aretw0/homecare/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// App holds the process-wide collaborators every command shares.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Backend  flows.Backend
	Store    ports.TokenStore
	Auth     *auth.Session
	Registry *prometheus.Registry
	Metrics  *observability.Metrics

	closers []func() error
}

// AppOption overrides a collaborator, mostly for tests.
type AppOption func(*App)

// WithBackend replaces the HTTP client built from the configuration.
func WithBackend(b flows.Backend) AppOption {
	return func(a *App) { a.Backend = b }
}

// WithTokenStore replaces the store selected by the configuration.
func WithTokenStore(s ports.TokenStore) AppOption {
	return func(a *App) { a.Store = s }
}

// NewApp wires the backend client, token store, auth session and metrics,
// then restores the logged-in user if one was stored.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...AppOption) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Logger: logger}
	for _, opt := range opts {
		opt(a)
	}

	if a.Backend == nil {
		client, err := api.NewClient(api.Config{BaseURL: cfg.APIURL, Timeout: cfg.HTTPTimeout, Logger: logger})
		if err != nil {
			return nil, err
		}
		a.Backend = client
	}

	if a.Store == nil {
		store, closer, err := OpenTokenStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.Store = store
		if closer != nil {
			a.closers = append(a.closers, closer)
		}
	}

	a.Auth = auth.NewSession(a.Store, a.Backend, auth.WithClientID(cfg.ClientID), auth.WithLogger(logger))
	if _, err := a.Auth.Rehydrate(ctx); err != nil {
		logger.Warn("Could not restore the previous login", "err", err)
	}

	if cfg.MetricsEnabled {
		a.Registry = prometheus.NewRegistry()
		m, err := observability.NewMetrics(a.Registry)
		if err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		a.Metrics = m
	}
	return a, nil
}

// OpenTokenStore builds the configured token store, wrapped in encryption
// when a key is set. The returned closer may be nil.
func OpenTokenStore(ctx context.Context, cfg *config.Config) (ports.TokenStore, func() error, error) {
	var (
		store  ports.TokenStore
		closer func() error
	)
	switch cfg.TokenStore {
	case config.StoreMemory:
		store = memory.NewStore()
	case config.StoreRedis:
		rs := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, redis.WithTTL(cfg.TokenTTL))
		if err := rs.Ping(ctx); err != nil {
			_ = rs.Close()
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		store, closer = rs, rs.Close
	default:
		store = file.New(cfg.TokenPath)
	}

	if cfg.TokenKey == "" {
		return store, closer, nil
	}
	key, err := middleware.ParseKey(cfg.TokenKey)
	if err != nil {
		return nil, closer, fmt.Errorf("HOMECARE_TOKEN_KEY: %w", err)
	}
	var fallbacks [][]byte
	for _, raw := range cfg.TokenFallbackKeys {
		k, err := middleware.ParseKey(raw)
		if err != nil {
			return nil, closer, fmt.Errorf("HOMECARE_TOKEN_FALLBACK_KEYS: %w", err)
		}
		fallbacks = append(fallbacks, k)
	}
	enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key, FallbackKeys: fallbacks})
	if err != nil {
		return nil, closer, err
	}
	return middleware.Chain(store, enc), closer, nil
}

// Hooks returns the metrics hooks merged with debug logging when asked.
func (a *App) Hooks(debug bool) domain.LifecycleHooks {
	var hooks domain.LifecycleHooks
	if a.Metrics != nil {
		hooks = a.Metrics.Hooks()
	}
	if debug {
		hooks = hooks.Merge(observability.LogHooks(a.Logger))
	}
	return hooks
}

// Deps returns what a flow needs to open in this process.
func (a *App) Deps(params map[string]string, debug bool) flows.Deps {
	return flows.Deps{
		Backend: a.Backend,
		Auth:    a.Auth,
		Logger:  a.Logger,
		Hooks:   a.Hooks(debug),
		Params:  params,
	}
}

// Close releases the token store connection.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
