package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caddyserver/certmagic"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jikku/coffeehouse/internal/config"
	"github.com/jikku/coffeehouse/internal/database"
	"github.com/jikku/coffeehouse/internal/handlers"
	"github.com/jikku/coffeehouse/internal/metrics"
	"github.com/jikku/coffeehouse/internal/middleware"
	"github.com/jikku/coffeehouse/internal/security"
	"github.com/jikku/coffeehouse/internal/stores"
	"github.com/jikku/coffeehouse/internal/templates"
	"github.com/jikku/coffeehouse/internal/urls"
)

var (
	portFlag string
	dbFlag   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Sync()

		return serve(cmd.Context(), cfg, logger)
	},
}

// site is the fully wired application
type site struct {
	handler http.Handler
	router  *urls.Router
	metrics *metrics.Metrics
}

// newSite wires templates, views, routes and middleware. db may be nil,
// in which case visits are not recorded and /health always passes.
func newSite(cfg *config.Config, db *database.DB, logger *zap.Logger) (*site, error) {
	renderer, err := templates.New(
		templates.WithLogger(logger),
		templates.WithProcessors(
			templates.Debug(cfg.Server.Debug),
			templates.Request(),
			stores.OnSale(),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	m := metrics.New()
	opts := []handlers.Option{handlers.WithLogger(logger), handlers.WithMetrics(m)}
	if db != nil {
		opts = append(opts, handlers.WithVisits(db), handlers.WithHealth(db))
	}
	h := handlers.New(renderer, opts...)

	// only the contact form accepts posts
	limiter := middleware.NewRateLimiter(middleware.FormLimit, middleware.FormWindow)

	views := h.Views()
	views[urls.ViewMetrics] = m.Handler()
	views[urls.ViewContactPage] = limiter.Middleware(logger)(views[urls.ViewContactPage])

	router, err := urls.New(urls.Root(), views)
	if err != nil {
		return nil, fmt.Errorf("failed to build routes: %w", err)
	}
	router.Use(m.Route)
	h.SetReverser(router)
	renderer.SetReverser(router)

	// order: tracing -> logging -> recovery -> hosts -> security -> origin -> body limit -> metrics -> router
	handler := middleware.Chain(router,
		middleware.RequestTracing,
		middleware.Logging(logger),
		middleware.Recovery(http.HandlerFunc(h.ServerError), logger),
		middleware.AllowedHosts(cfg.Server.AllowedHosts, http.HandlerFunc(h.BadRequest), logger),
		middleware.SecurityHeaders(cfg.IsProduction()),
		middleware.SameOrigin(http.HandlerFunc(h.PermissionDenied), logger),
		middleware.BodySizeLimit(middleware.MaxBodySize),
		m.Middleware,
	)

	return &site{handler: handler, router: router, metrics: m}, nil
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	logger.Info("Starting Coffeehouse",
		zap.String("version", Version),
		zap.String("env", cfg.Server.Env),
		zap.Bool("debug", cfg.Server.Debug),
		zap.String("port", cfg.Server.Port),
		zap.String("database", cfg.Database.Engine))

	db, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	var dbPath string
	if cfg.Database.Engine == config.EngineSQLite {
		dbPath = config.ExpandPath(cfg.Database.Path)
	}
	security.EnsureSecurePermissions(logger, config.ExpandPath(configPath), dbPath)

	if cfg.IsDevelopment() {
		if err := db.GenerateMockData(ctx, 50); err != nil {
			logger.Warn("Failed to generate mock data", zap.Error(err))
		}
	}

	s, err := newSite(cfg, db, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      s.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if cfg.Server.TLSDomain != "" {
		certmagic.DefaultACME.Agreed = true
		certmagic.DefaultACME.Email = cfg.Server.TLSEmail
		certmagic.Default.Storage = database.NewCertStorage(db)

		tlsConfig, err := certmagic.TLS([]string{cfg.Server.TLSDomain})
		if err != nil {
			return fmt.Errorf("failed to set up TLS: %w", err)
		}
		srv.TLSConfig = tlsConfig
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", zap.String("addr", srv.Addr), zap.Bool("tls", srv.TLSConfig != nil))
		var err error
		if srv.TLSConfig != nil {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-quit:
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}
