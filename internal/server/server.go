// Package server wires the configured components into the HTTP router and
// runs it.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/photomaton/service/internal/baseurl"
	"github.com/photomaton/service/internal/config"
	"github.com/photomaton/service/internal/db"
	"github.com/photomaton/service/internal/download"
	appMiddleware "github.com/photomaton/service/internal/middleware"
	"github.com/photomaton/service/internal/metrics"
	"github.com/photomaton/service/internal/notify"
	"github.com/photomaton/service/internal/qrcode"
	"github.com/photomaton/service/internal/session"
	"github.com/photomaton/service/internal/storage"

	_ "github.com/photomaton/service/docs/swagger"
)

// Deps are the components the router dispatches to.
type Deps struct {
	Sessions *session.Service
	Bundler  *download.Bundler
	QR       *qrcode.Fetcher
	Sender   notify.Sender
	Resolver *baseurl.Resolver
	Metrics  *metrics.Metrics
}

// App is a fully wired service. Close releases its connections.
type App struct {
	Handler http.Handler
	closers []func()
}

// Close releases database and cache connections.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// Build constructs every component from cfg: repository → service → handler.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{}
	m := metrics.New()

	backend, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("storage backend: %w", err)
	}

	store, err := sessionStore(ctx, cfg, app)
	if err != nil {
		app.Close()
		return nil, err
	}

	var cache qrcode.Cache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("server: redis %s unreachable, qr cache will miss until it recovers: %v", cfg.RedisAddr, err)
		}
		app.closers = append(app.closers, func() { _ = rdb.Close() })
		cache = qrcode.NewRedisCache(rdb)
	}

	var sender notify.Sender = notify.LogSender{}
	if cfg.HasTwilio() {
		sender = notify.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFrom)
	} else if cfg.IsProduction() {
		log.Println("server: twilio not configured, links will only be logged")
	}

	deps := Deps{
		Sessions: session.NewService(store, backend, cfg.UploadFolder, m),
		Bundler:  download.NewBundler(cfg.PublicDir, m),
		QR:       qrcode.NewFetcher(qrcode.DefaultProviders(cfg.QRLocalFallback), cache, m),
		Sender:   sender,
		Resolver: baseurl.NewResolver(cfg.PublicBaseURL, cfg.TunnelAPIURL),
		Metrics:  m,
	}
	log.Printf("server: storage=%s sender=%s qr_cache=%t", backend.Name(), sender.Name(), cache != nil)

	app.Handler = NewRouter(cfg, deps)
	return app, nil
}

func sessionStore(ctx context.Context, cfg *config.Config, app *App) (session.Store, error) {
	if cfg.DatabaseURL == "" {
		return session.NewFileStore(cfg.SessionsDir)
	}
	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		return nil, fmt.Errorf("database migration: %w", err)
	}
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("database connection: %w", err)
	}
	app.closers = append(app.closers, pool.Close)
	return session.NewPostgresStore(pool), nil
}

// NewRouter mounts the API, download pages, operational endpoints and the
// static kiosk client.
func NewRouter(cfg *config.Config, d Deps) http.Handler {
	sessionHandler := session.NewHandler(d.Sessions, d.Resolver)
	downloadHandler := download.NewHandler(d.Sessions, d.Bundler, d.Resolver)
	qrHandler := qrcode.NewHandler(d.QR)
	notifyHandler := notify.NewHandler(d.Sessions, d.Resolver, d.Sender, d.Metrics)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", d.Metrics.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api", func(r chi.Router) {
		r.With(appMiddleware.MaxBody(int64(cfg.MaxBodyMB)<<20)).Post("/create-session", sessionHandler.CreateSession)
		r.With(appMiddleware.MaxBody(64<<10)).Post("/send-link", notifyHandler.SendLink)
		r.Get("/qr", qrHandler.QR)
	})

	r.Get("/download/{sessionId}", downloadHandler.Gallery)
	r.Get("/download-photo/{sessionId}/{index}", downloadHandler.Photo)
	r.Get("/download-all/{sessionId}", downloadHandler.All)

	// Kiosk client and locally stored images; "/" serves index.html. Image
	// folders are never listed.
	r.Handle("/*", http.FileServer(noListingFS{fs: http.Dir(cfg.PublicDir)}))

	return r
}

// Run serves until SIGINT or SIGTERM, then shuts down gracefully.
func Run(cfg *config.Config, addr string) error {
	if addr == "" {
		addr = ":" + cfg.Port
	}

	app, err := Build(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              addr,
		Handler:           app.Handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("server listening on %s (env=%s)", addr, cfg.AppEnv)
		log.Printf("swagger UI at http://localhost%s/swagger/", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}
	log.Println("shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	log.Println("server stopped")
	return nil
}
