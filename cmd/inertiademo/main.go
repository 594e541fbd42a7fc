// Command inertiademo serves a small contacts application over the Inertia
// protocol.
//
// It is configured through the environment:
//
//	ADDR             listen address (default ":8080")
//	ASSET_VERSION    asset version announced to clients, derived from the
//	                 Vite manifest when empty
//	PUBLIC_DIR       directory holding the built assets (default "public")
//	VITE_MANIFEST    path of the Vite manifest within PUBLIC_DIR
//	SSR_URL          base URL of the SSR service, if any
//	REDIS_URL        Redis URL for flash storage; a signed cookie is used otherwise
//	FLASH_SECRET     cookie signing secret, required without REDIS_URL
//	FLASH_TTL        lifetime of carried flash data
//	LOG_LEVEL        debug, info, warn or error
//	ENCRYPT_HISTORY  encrypt the history state of every page
package main

import (
	"cmp"
	"context"
	"embed"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"go.trall.dev/inertia"
	"go.trall.dev/inertia/contrib/vite"
	"go.trall.dev/inertia/inertiaflash"
)

//go:embed templates
var templates embed.FS

func main() {
	if err := run(); err != nil {
		slog.Error("inertiademo: exiting", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig(env.ToMap(os.Environ()))
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})) //nolint:exhaustruct
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	carrier, closeCarrier, err := newFlashCarrier(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCarrier()

	var ssrClient inertia.SSRClient
	if cfg.SSRURL != "" {
		ssrClient = inertia.NewHTTPSsrClient(cfg.SSRURL, &http.Client{Timeout: 5 * time.Second}) //nolint:exhaustruct
		if !ssrClient.IsAvailable(ctx) {
			logger.WarnContext(ctx, "inertiademo: SSR service is unavailable, pages render client-side")
		}
	}

	public := os.DirFS(cfg.PublicDir)

	manifest, err := vite.ParseManifestFromFS(public, cfg.ViteManifest, "/build/")
	if err != nil {
		return err
	}

	tpl, err := vite.NewTemplate(templates, "templates/app.html", manifest)
	if err != nil {
		return err
	}

	renderer := inertia.New(tpl, &inertia.Config{ //nolint:exhaustruct
		SSRClient:      ssrClient,
		Logger:         logger,
		Version:        cmp.Or(cfg.AssetVersion, manifest.Version()),
		EncryptHistory: cfg.EncryptHistory,
	})

	renderer.Shared().Share("appName", "Inertia demo")

	app := newApp(newContactStore())

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(inertia.NewMiddleware(renderer, func(c *inertia.MiddlewareConfig) {
		c.FlashCarrier = carrier
		c.Logger = logger
		c.Share = app.share
	}))

	app.mount(r)
	r.Handle("/build/*", http.FileServerFS(public))

	srv := &http.Server{ //nolint:exhaustruct
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)

	go func() {
		logger.InfoContext(ctx, "inertiademo: listening", slog.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

func newFlashCarrier(ctx context.Context, cfg *config) (inertia.FlashCarrier, func(), error) {
	cookie := inertiaflash.CookieOptions{TTL: cfg.FlashTTL} //nolint:exhaustruct

	if cfg.RedisURL == "" {
		return inertiaflash.NewCookie([]byte(cfg.FlashSecret), &cookie), func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, err
	}

	carrier := inertiaflash.NewRedis(client, &inertiaflash.RedisOptions{ //nolint:exhaustruct
		Cookie: cookie,
	})

	return carrier, func() { _ = client.Close() }, nil
}
