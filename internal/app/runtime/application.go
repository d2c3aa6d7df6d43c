package runtime

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/logistiker/saleor-app/internal/apl"
	"github.com/logistiker/saleor-app/internal/apl/bolt"
	"github.com/logistiker/saleor-app/internal/apl/file"
	"github.com/logistiker/saleor-app/internal/apl/memory"
	"github.com/logistiker/saleor-app/internal/apl/postgres"
	aplredis "github.com/logistiker/saleor-app/internal/apl/redis"
	"github.com/logistiker/saleor-app/internal/app/httpapi"
	"github.com/logistiker/saleor-app/internal/app/metrics"
	"github.com/logistiker/saleor-app/internal/config"
	"github.com/logistiker/saleor-app/internal/logging"
	"github.com/logistiker/saleor-app/internal/middleware"
	"github.com/logistiker/saleor-app/internal/platform/migrations"
	"github.com/logistiker/saleor-app/internal/registration"
	"github.com/logistiker/saleor-app/internal/saleor"
	"github.com/logistiker/saleor-app/manifest"
)

// Application wires core dependencies and manages the HTTP server lifecycle.
type Application struct {
	cfg        *config.Config
	log        *logging.Logger
	httpServer *http.Server
	store      apl.Store
	closeStore func() error
	limiter    *middleware.RateLimiter
	stopBg     context.CancelFunc

	mu       sync.Mutex
	listener net.Listener
	serveErr chan error
}

// NewApplication loads the app description, opens the configured store and
// builds the HTTP server. Nothing listens until Start or Run.
func NewApplication(ctx context.Context, cfg *config.Config, log *logging.Logger) (*Application, error) {
	appCfg, err := manifest.Load(cfg.AppConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load app config: %w", err)
	}

	allowed, err := cfg.AllowedURLPatterns()
	if err != nil {
		return nil, err
	}

	store, closeStore, err := BuildStore(ctx, cfg.APL, log)
	if err != nil {
		return nil, fmt.Errorf("configure store: %w", err)
	}

	client := saleor.NewClient(saleor.ClientConfig{
		Timeout:   cfg.Registration.ValidationTimeout,
		UserAgent: appCfg.ID + "/" + appCfg.Version,
	})
	registrar := registration.New(store, client, registration.Config{
		ValidationTimeout: cfg.Registration.ValidationTimeout,
		AllowedURLs:       allowed,
	}, log)

	var limiter *middleware.RateLimiter
	if cfg.Registration.RateLimit > 0 {
		limiter = middleware.NewRateLimiter(cfg.Registration.RateLimit, cfg.Registration.RateBurst, log)
	}

	handler := httpapi.NewHandler(httpapi.Deps{
		Manifest:    appCfg,
		Registrar:   registrar,
		Store:       store,
		Logger:      log,
		RateLimiter: limiter,
	})

	return &Application{
		cfg: cfg,
		log: log,
		httpServer: &http.Server{
			Addr:              cfg.ListenAddr(),
			Handler:           handler,
			ReadTimeout:       cfg.Server.ReadTimeout,
			ReadHeaderTimeout: cfg.Server.ReadTimeout,
			WriteTimeout:      cfg.Server.WriteTimeout,
		},
		store:      store,
		closeStore: closeStore,
		limiter:    limiter,
	}, nil
}

// Start binds the listener and serves in the background.
func (a *Application) Start() error {
	ln, err := net.Listen("tcp", a.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.httpServer.Addr, err)
	}

	bgCtx, cancel := context.WithCancel(context.Background())
	if a.limiter != nil {
		a.limiter.StartCleanup(bgCtx, time.Minute)
	}

	errCh := make(chan error, 1)
	a.mu.Lock()
	a.listener = ln
	a.serveErr = errCh
	a.stopBg = cancel
	a.mu.Unlock()

	a.log.WithFields(map[string]interface{}{
		"addr":   ln.Addr().String(),
		"driver": a.cfg.APL.Driver,
	}).Info("HTTP server listening")

	go func() {
		if err := a.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	return nil
}

// Run starts the server and blocks until ctx is cancelled or serving fails.
func (a *Application) Run(ctx context.Context) error {
	if err := a.Start(); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return nil
	case err, ok := <-a.serveErr:
		if !ok {
			return nil
		}
		return err
	}
}

// Addr returns the bound address once started.
func (a *Application) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

// Store exposes the configured installation store.
func (a *Application) Store() apl.Store { return a.store }

// Shutdown drains in-flight requests, then closes the store. In-flight
// registrations that passed validation finish their write before the store
// is closed.
func (a *Application) Shutdown(ctx context.Context) error {
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	a.mu.Lock()
	stopBg := a.stopBg
	a.mu.Unlock()
	if stopBg != nil {
		stopBg()
	}

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if a.closeStore != nil {
		if err := a.closeStore(); err != nil {
			a.log.WithError(err).Warn("error closing installation store")
		}
	}
	return nil
}

// BuildStore opens the store selected by cfg.Driver, instrumented with
// metrics. The returned close function releases its resources.
func BuildStore(ctx context.Context, cfg config.APLConfig, log *logging.Logger) (apl.Store, func() error, error) {
	noop := func() error { return nil }

	var (
		store   apl.Store
		closeFn = noop
	)
	switch cfg.Driver {
	case config.DriverFile, "":
		s, err := file.Open(cfg.FilePath, file.WithResetCorrupt(cfg.FileResetCorrupt), file.WithLogger(log))
		if err != nil {
			return nil, nil, err
		}
		store = s
	case config.DriverMemory:
		log.Warn("using in-memory installation store; installations are lost on restart")
		store = memory.New()
	case config.DriverPostgres:
		db, err := openDatabase(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if cfg.PostgresMigrate {
			if err := migrations.Apply(ctx, db); err != nil {
				db.Close()
				return nil, nil, err
			}
		}
		store, closeFn = postgres.New(db), db.Close
	case config.DriverRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		store, closeFn = aplredis.New(client, cfg.RedisPrefix), client.Close
	case config.DriverBolt:
		s, err := bolt.Open(cfg.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		store, closeFn = s, s.Close
	default:
		return nil, nil, fmt.Errorf("unknown APL driver %q", cfg.Driver)
	}

	driver := cfg.Driver
	if driver == "" {
		driver = config.DriverFile
	}
	return metrics.InstrumentStore(driver, store), closeFn, nil
}

func openDatabase(ctx context.Context, dsn string) (*sqlx.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database dsn not configured")
	}

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
