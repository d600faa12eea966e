package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dynasty-blog/dynasty/internal/api/handlers"
	"github.com/dynasty-blog/dynasty/internal/auth"
	"github.com/dynasty-blog/dynasty/internal/config"
	"github.com/dynasty-blog/dynasty/internal/ipfs"
	"github.com/dynasty-blog/dynasty/internal/mail"
	"github.com/dynasty-blog/dynasty/internal/media"
	"github.com/dynasty-blog/dynasty/internal/render"
	"github.com/dynasty-blog/dynasty/internal/repository/badger"
	"github.com/dynasty-blog/dynasty/internal/repository/sqlite"
	"github.com/dynasty-blog/dynasty/internal/search"
	"github.com/dynasty-blog/dynasty/internal/service"
	"github.com/dynasty-blog/dynasty/internal/validator"
	"github.com/dynasty-blog/dynasty/pkg/logger"
)

// app holds the wired services shared by every command
type app struct {
	cfg *config.Config
	log *logger.Logger

	db         *sqlite.DB
	cache      *badger.DB
	index      *search.BleveIndex
	ipfsClient *ipfs.Client
	jwtManager *auth.JWTManager

	posts    *service.PostService
	users    *service.UserService
	comments *service.CommentService
	share    *service.ShareService
	search   *service.SearchService
	feed     *service.FeedService
}

// newApp opens the stores and wires the services. The render cache and the
// search index are optional: when either fails to open the app runs without
// it.
func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	db, err := sqlite.New(cfg.Database.Path, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	a.db = db
	log.Info("Database initialized", "path", cfg.Database.Path)

	var (
		renderCache render.Cache
		invalidator service.CacheInvalidator
	)
	if cfg.Cache.Enabled {
		cacheDB, err := badger.New(cfg.Cache.Path)
		if err != nil {
			log.Warn("Render cache unavailable, rendering on every request", "path", cfg.Cache.Path, "error", err)
		} else {
			a.cache = cacheDB
			rc := badger.NewRenderCache(cacheDB, cfg.Cache.TTL)
			renderCache, invalidator = rc, rc
			log.Info("Render cache opened", "path", cfg.Cache.Path, "ttl", cfg.Cache.TTL.String())
		}
	}

	var (
		indexer service.SearchIndexer
		ranked  service.RankedSearcher
	)
	if cfg.Search.Enabled {
		index := search.NewBleveIndex(search.Options{
			TitleBoost: cfg.Search.TitleBoost,
			MaxResults: cfg.Search.MaxResults,
		}, log)
		if err := index.Open(cfg.Search.IndexPath); err != nil {
			log.Warn("Search index unavailable, using substring search", "path", cfg.Search.IndexPath, "error", err)
		} else {
			a.index = index
			indexer, ranked = index, index
			count, _ := index.Count()
			log.Info("Search index opened", "path", cfg.Search.IndexPath, "document_count", count)
		}
	}

	store, err := a.newStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	mailer, err := newMailer(cfg.Email, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	loc := cfg.Blog.Location()
	v := validator.New()
	renderer := render.New(renderCache, log)

	postRepo := sqlite.NewPostRepo(db, loc)
	commentRepo := sqlite.NewCommentRepo(db)
	userRepo := sqlite.NewUserRepo(db)

	a.jwtManager = auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Auth.RefreshTokenExpiry)

	opts := service.BlogOptions{
		PageSize:       cfg.Blog.PageSize,
		PagePolicy:     cfg.Blog.PaginationPolicy(),
		SimilarLimit:   cfg.Blog.SimilarLimit,
		LatestCount:    cfg.Blog.LatestCount,
		Location:       loc,
		MaxUploadBytes: cfg.Media.MaxUploadBytes(),
	}

	a.posts = service.NewPostService(postRepo, postRepo, commentRepo, indexer, invalidator, renderer, store, v, opts, log)
	a.users = service.NewUserService(userRepo, a.jwtManager, v, cfg.Auth.BcryptCost, log)
	a.comments = service.NewCommentService(commentRepo, postRepo, v, log)
	a.share = service.NewShareService(postRepo, mailer, cfg.Email.From, v, opts, log)
	a.search = service.NewSearchService(ranked, postRepo, store, cfg.Search.MinRelevance, log)
	a.feed = service.NewFeedService(postRepo, renderer, service.FeedOptions{
		Title:        cfg.Blog.Title,
		Description:  cfg.Blog.Description,
		Items:        cfg.Blog.FeedItems,
		ExcerptWords: cfg.Blog.FeedExcerptWords,
		Location:     loc,
	}, log)

	return a, nil
}

// newStore builds the attachment store for the configured backend
func (a *app) newStore(ctx context.Context) (media.Store, error) {
	m := a.cfg.Media

	switch m.Backend {
	case "s3":
		store, err := media.NewS3Store(media.S3Config{
			Endpoint:  m.S3.Endpoint,
			AccessKey: m.S3.AccessKey,
			SecretKey: m.S3.SecretKey,
			UseSSL:    m.S3.UseSSL,
			Bucket:    m.S3.Bucket,
			PublicURL: m.S3.PublicURL,
		})
		if err != nil {
			return nil, err
		}

		bucketCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := store.EnsureBucket(bucketCtx); err != nil {
			return nil, fmt.Errorf("failed to prepare bucket %q: %w", m.S3.Bucket, err)
		}
		a.log.Info("Media stored in S3", "endpoint", m.S3.Endpoint, "bucket", m.S3.Bucket)
		return store, nil

	case "ipfs":
		a.ipfsClient = ipfs.NewClient(m.IPFS.APIEndpoint, m.IPFS.Timeout, m.IPFS.Pin, a.log)
		if !a.ipfsClient.IsHealthy(ctx) {
			a.log.Warn("IPFS node is not reachable; uploads will fail until it is", "endpoint", m.IPFS.APIEndpoint)
		} else {
			a.log.Info("Connected to IPFS", "endpoint", m.IPFS.APIEndpoint)
		}
		return media.NewIPFSStore(a.ipfsClient, m.IPFS.Gateway), nil

	default:
		store, err := media.NewLocalStore(m.Root, m.URL)
		if err != nil {
			return nil, err
		}
		a.log.Info("Media stored locally", "root", m.Root)
		return store, nil
	}
}

func newMailer(cfg config.EmailConfig, log *logger.Logger) (mail.Mailer, error) {
	switch cfg.Backend {
	case "console":
		return mail.NewConsoleMailer(log), nil
	case "smtp":
		return mail.NewSMTPMailer(mail.SMTPConfig{
			Host:     cfg.Host,
			Port:     cfg.Port,
			Username: cfg.Username,
			Password: cfg.Password,
			UseTLS:   cfg.UseTLS,
			UseSSL:   cfg.UseSSL,
			Timeout:  cfg.Timeout,
		}, log), nil
	default:
		return nil, fmt.Errorf("unknown email backend %q", cfg.Backend)
	}
}

// healthChecks lists the dependencies /health/ready checks
func (a *app) healthChecks() []handlers.HealthCheck {
	checks := []handlers.HealthCheck{
		{Name: "database", Required: true, Check: a.db.HealthCheck},
	}

	searchCheck := handlers.HealthCheck{Name: "search", Check: func(context.Context) error {
		return errors.New("search index not open")
	}}
	if a.index != nil {
		searchCheck.Check = func(context.Context) error {
			_, err := a.index.Count()
			return err
		}
	}
	checks = append(checks, searchCheck)

	if a.cache != nil {
		checks = append(checks, handlers.HealthCheck{Name: "cache", Check: func(context.Context) error {
			return a.cache.HealthCheck()
		}})
	}

	if a.ipfsClient != nil {
		checks = append(checks, handlers.HealthCheck{Name: "ipfs", Check: func(ctx context.Context) error {
			if !a.ipfsClient.IsHealthy(ctx) {
				return errors.New("ipfs node not reachable")
			}
			return nil
		}})
	}

	return checks
}

// Close releases the stores
func (a *app) Close() {
	if a.index != nil {
		if err := a.index.Close(); err != nil {
			a.log.Warn("Failed to close search index", "error", err)
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warn("Failed to close render cache", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("Failed to close database", "error", err)
		}
	}
}
