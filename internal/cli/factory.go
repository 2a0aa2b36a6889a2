package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/vibecam"
	"github.com/aretw0/vibecam/internal/config"
	"github.com/aretw0/vibecam/internal/logging"
	"github.com/aretw0/vibecam/pkg/adapters/file"
	"github.com/aretw0/vibecam/pkg/adapters/gemini"
	"github.com/aretw0/vibecam/pkg/adapters/memory"
	"github.com/aretw0/vibecam/pkg/adapters/openai"
	redisadapter "github.com/aretw0/vibecam/pkg/adapters/redis"
	"github.com/aretw0/vibecam/pkg/asset"
	"github.com/aretw0/vibecam/pkg/camera"
	"github.com/aretw0/vibecam/pkg/observability"
	"github.com/aretw0/vibecam/pkg/persistence/middleware"
	"github.com/aretw0/vibecam/pkg/ports"
	"github.com/aretw0/vibecam/pkg/runner"
	"github.com/aretw0/vibecam/pkg/session"
)

// App bundles everything a command needs, built from one Config.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Engine   *vibecam.Engine
	Sessions *session.Manager
	Registry *prometheus.Registry
	// Sanitizer applies the configured message limit on every surface.
	Sanitizer *runner.Sanitizer

	closers []io.Closer
}

// BuildOption adjusts Build, mostly for tests.
type BuildOption func(*buildOptions)

type buildOptions struct {
	logger    *slog.Logger
	completer ports.Completer
	generator ports.ImageGenerator
	engine    []vibecam.Option
}

// WithLogger overrides the logger derived from the configured level.
func WithLogger(logger *slog.Logger) BuildOption {
	return func(o *buildOptions) {
		o.logger = logger
	}
}

// WithProviders skips the configured model provider.
func WithProviders(c ports.Completer, g ports.ImageGenerator) BuildOption {
	return func(o *buildOptions) {
		o.completer = c
		o.generator = g
	}
}

// WithEngineOptions appends options to the engine built by Build.
func WithEngineOptions(opts ...vibecam.Option) BuildOption {
	return func(o *buildOptions) {
		o.engine = append(o.engine, opts...)
	}
}

// Build wires providers, engine, session store and metrics from cfg.
// Callers must Close the returned App.
func Build(ctx context.Context, cfg *config.Config, opts ...BuildOption) (*App, error) {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}

	app := &App{
		Config:    cfg,
		Logger:    o.logger,
		Sanitizer: runner.NewSanitizer(cfg.MaxInputSize),
	}
	if app.Logger == nil {
		level, err := logging.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		app.Logger = logging.New(level)
	}

	hooks := observability.LogHooks(app.Logger)
	if cfg.Server.Metrics {
		app.Registry = prometheus.NewRegistry()
		app.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		hooks = observability.Merge(hooks, observability.NewMetrics(app.Registry).Hooks())
	}

	catalog, err := camera.LoadFile(cfg.CatalogFile)
	if err != nil {
		return nil, err
	}

	fetchOpts := []asset.Option{
		asset.WithAttempts(cfg.Fetch.Attempts),
		asset.WithTimeout(cfg.Fetch.Timeout),
	}

	completer, generator := o.completer, o.generator
	if completer == nil && generator == nil {
		references := asset.NewFetcher(append(fetchOpts, asset.WithLogger(app.Logger))...)
		completer, generator, err = newProviders(ctx, cfg, references, app.Logger)
		if err != nil {
			return nil, err
		}
	}

	engineOpts := []vibecam.Option{
		vibecam.WithLogger(app.Logger),
		vibecam.WithLifecycleHooks(hooks),
		vibecam.WithCatalog(catalog),
		vibecam.WithFetcherOptions(fetchOpts...),
		vibecam.WithReadyMessage(cfg.ReadyMessage),
		vibecam.WithMaxListIndex(cfg.MaxListIndex),
	}
	if cfg.AtomicPatches {
		engineOpts = append(engineOpts, vibecam.WithAtomicPatches())
	}
	app.Engine = vibecam.New(completer, generator, append(engineOpts, o.engine...)...)

	store, locker, closer, err := newStore(cfg)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		app.closers = append(app.closers, closer)
	}
	if store, err = protectStore(store, cfg.Store); err != nil {
		app.Close()
		return nil, err
	}
	sessionOpts := []session.Option{session.WithLogger(app.Logger)}
	if locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(locker))
	}
	app.Sessions = session.NewManager(store, sessionOpts...)

	app.Logger.Debug("app built",
		"provider", cfg.Provider,
		"store", cfg.Store.Type,
		"presets", len(catalog.Names()),
		"metrics", cfg.Server.Metrics,
	)
	return app, nil
}

// MetricsHandler serves the app registry, or nil when metrics are disabled.
func (a *App) MetricsHandler() http.Handler {
	if a.Registry == nil {
		return nil
	}
	return promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{Registry: a.Registry})
}

// Close releases store connections.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func newProviders(ctx context.Context, cfg *config.Config, references *asset.Fetcher, logger *slog.Logger) (ports.Completer, ports.ImageGenerator, error) {
	p := cfg.ActiveProvider()
	switch cfg.Provider {
	case config.ProviderOpenAI:
		c, err := openai.New(openai.Config{APIKey: p.APIKey, BaseURL: p.BaseURL},
			openai.WithChatModel(p.TextModel),
			openai.WithImageModel(p.ImageModel),
			openai.WithLogger(logger),
		)
		if err != nil {
			return nil, nil, err
		}
		return c, c, nil
	case config.ProviderGemini:
		c, err := gemini.New(ctx, gemini.Config{APIKey: p.APIKey, BaseURL: p.BaseURL},
			gemini.WithTextModel(p.TextModel),
			gemini.WithImageModel(p.ImageModel),
			gemini.WithReferenceFetcher(references),
			gemini.WithLogger(logger),
		)
		if err != nil {
			return nil, nil, err
		}
		return c, c, nil
	default:
		return nil, nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

func newStore(cfg *config.Config) (ports.SessionStore, ports.DistributedLocker, io.Closer, error) {
	switch cfg.Store.Type {
	case config.StoreMemory:
		return memory.NewStore(), nil, nil, nil
	case config.StoreFile:
		return file.New(cfg.Store.Dir), nil, nil, nil
	case config.StoreRedis:
		r := cfg.Store.Redis
		store := redisadapter.New(r.Addr, r.Password, r.DB, redisadapter.WithTTL(r.TTL))
		var locker ports.DistributedLocker
		if r.Lock {
			locker = redisadapter.NewLocker(store.Client(), redisadapter.DefaultPrefix)
		}
		return store, locker, store, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown store type %q", cfg.Store.Type)
	}
}

// protectStore layers redaction and encryption over store when configured.
// Redaction runs first so masked values are what gets sealed.
func protectStore(store ports.SessionStore, cfg config.StoreConfig) (ports.SessionStore, error) {
	var mws []middleware.Middleware
	if len(cfg.RedactKeys) > 0 {
		pii, err := middleware.NewPIIMiddleware(cfg.RedactKeys)
		if err != nil {
			return nil, err
		}
		mws = append(mws, pii)
	}
	if cfg.EncryptionKey != "" {
		active, err := middleware.DecodeKey(cfg.EncryptionKey)
		if err != nil {
			return nil, err
		}
		enc := middleware.EncryptionConfig{ActiveKey: active}
		for _, k := range cfg.FallbackKeys {
			key, err := middleware.DecodeKey(k)
			if err != nil {
				return nil, fmt.Errorf("fallback key: %w", err)
			}
			enc.FallbackKeys = append(enc.FallbackKeys, key)
		}
		mw, err := middleware.NewEncryptionMiddleware(enc)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	return middleware.Chain(store, mws...), nil
}
