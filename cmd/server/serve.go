package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/dynasty-blog/dynasty/internal/api"
	"github.com/dynasty-blog/dynasty/internal/api/handlers"
	"github.com/dynasty-blog/dynasty/internal/api/middleware"
)

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer log.Sync()

	log.Info("Starting blog server",
		"version", "1.0.0",
		"mode", cfg.Server.Mode,
		"media_backend", cfg.Media.Backend,
		"email_backend", cfg.Email.Backend,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
	go rateLimiter.Run(ctx)

	site := handlers.SiteURL{
		BaseURL:             cfg.Server.BaseURL,
		TrustForwardedProto: cfg.Server.TrustForwardedProto,
		AllowedHosts:        cfg.Server.AllowedHosts,
	}

	router := api.NewRouter(api.Handlers{
		Auth:    handlers.NewAuthHandler(a.users, log),
		Post:    handlers.NewPostHandler(a.posts, log),
		Comment: handlers.NewCommentHandler(a.comments, log),
		Share:   handlers.NewShareHandler(a.share, site, log),
		Search:  handlers.NewSearchHandler(a.search, log),
		Feed:    handlers.NewFeedHandler(a.feed, site, log),
		Author:  handlers.NewAuthorHandler(a.posts, log),
		Pages:   handlers.NewPagesHandler(cfg.Pages.Dir),
		Health:  handlers.NewHealthHandler(log, a.healthChecks()...),
	}, a.jwtManager, rateLimiter, registry, cfg, log)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		return err
	}

	log.Info("Server stopped gracefully")
	return nil
}

