package api

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dynasty-blog/dynasty/internal/api/handlers"
	"github.com/dynasty-blog/dynasty/internal/api/middleware"
	"github.com/dynasty-blog/dynasty/internal/auth"
	"github.com/dynasty-blog/dynasty/internal/config"
	"github.com/dynasty-blog/dynasty/pkg/logger"
)

// Handlers groups every HTTP handler the router mounts
type Handlers struct {
	Auth    *handlers.AuthHandler
	Post    *handlers.PostHandler
	Comment *handlers.CommentHandler
	Share   *handlers.ShareHandler
	Search  *handlers.SearchHandler
	Feed    *handlers.FeedHandler
	Author  *handlers.AuthorHandler
	Pages   *handlers.PagesHandler
	Health  *handlers.HealthHandler
}

// Router sets up the HTTP router with all routes and middleware
type Router struct {
	engine      *gin.Engine
	handlers    Handlers
	jwtManager  *auth.JWTManager
	rateLimiter *middleware.RateLimiter
	registry    *prometheus.Registry
	cfg         *config.Config
	logger      *logger.Logger
}

// NewRouter creates a new router. Metrics are registered with registry and
// served from it at /metrics.
func NewRouter(
	h Handlers,
	jwtManager *auth.JWTManager,
	rateLimiter *middleware.RateLimiter,
	registry *prometheus.Registry,
	cfg *config.Config,
	logger *logger.Logger,
) *Router {
	return &Router{
		handlers:    h,
		jwtManager:  jwtManager,
		rateLimiter: rateLimiter,
		registry:    registry,
		cfg:         cfg,
		logger:      logger,
	}
}

// Setup configures all routes and middleware
func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.cfg.Server.Mode)

	r.engine = gin.New()
	r.engine.MaxMultipartMemory = 8 << 20

	r.engine.Use(gin.Recovery())
	r.engine.Use(middleware.NewMetrics(r.registry).Middleware())
	r.engine.Use(middleware.CORSMiddleware(r.cfg.CORS.AllowedOrigins))
	r.engine.Use(middleware.LoggerMiddleware(r.logger))

	// Health and metrics (no rate limiting, no auth)
	r.engine.GET("/health", r.handlers.Health.Health)
	r.engine.GET("/health/ready", r.handlers.Health.Readiness)
	r.engine.GET("/health/live", r.handlers.Health.Liveness)
	r.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})))

	// Locally stored attachments
	if r.cfg.Media.Backend == "local" && strings.HasPrefix(r.cfg.Media.URL, "/") {
		r.engine.Static(strings.TrimRight(r.cfg.Media.URL, "/"), r.cfg.Media.Root)
	}

	// Reader pages
	blog := r.engine.Group("/blog")
	{
		blog.GET("/", r.handlers.Post.List)
		blog.GET("/tag/:slug", r.handlers.Post.ListByTag)
		blog.GET("/feed", r.handlers.Feed.RSS)
		blog.GET("/:year/:month/:day/:slug", r.handlers.Post.Detail)
	}
	r.engine.GET("/about", r.handlers.Pages.Page("about"))
	r.engine.GET("/contact", r.handlers.Pages.Page("contact"))

	v1 := r.engine.Group("/api/v1")
	{
		posts := v1.Group("/posts")
		{
			posts.GET("", r.handlers.Post.List)
			posts.GET("/latest", r.handlers.Post.Latest)
			posts.GET("/:id/similar", r.handlers.Post.Similar)
			posts.GET("/:id/comments", r.handlers.Comment.List)

			// Submissions are rate limited per client
			submit := posts.Group("")
			submit.Use(r.rateLimiter.Middleware())
			{
				submit.POST("/:id/comments", r.handlers.Comment.Create)
				submit.POST("/:id/share", r.handlers.Share.Share)
			}
		}

		v1.GET("/tags", r.handlers.Post.Tags)
		v1.GET("/tags/:slug/posts", r.handlers.Post.ListByTag)
		v1.GET("/search", r.handlers.Search.Search)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/login", r.rateLimiter.Middleware(), r.handlers.Auth.Login)
			authGroup.POST("/refresh", r.handlers.Auth.RefreshToken)

			authProtected := authGroup.Group("")
			authProtected.Use(middleware.AuthMiddleware(r.jwtManager))
			{
				authProtected.GET("/me", r.handlers.Auth.GetMe)
			}
		}

		author := v1.Group("/author")
		author.Use(middleware.AuthMiddleware(r.jwtManager))
		{
			author.GET("/posts", r.handlers.Author.List)
			author.POST("/posts", r.handlers.Author.Create)
			author.GET("/posts/:id", r.handlers.Author.Get)
			author.PUT("/posts/:id", r.handlers.Author.Update)
			author.DELETE("/posts/:id", r.handlers.Author.Delete)
			author.POST("/posts/:id/media/:kind", r.handlers.Author.UploadMedia)
			author.DELETE("/posts/:id/media/:kind", r.handlers.Author.RemoveMedia)
			author.PATCH("/comments/:id", r.handlers.Comment.Moderate)
		}
	}

	return r.engine
}

// GetEngine returns the Gin engine
func (r *Router) GetEngine() *gin.Engine {
	if r.engine == nil {
		return r.Setup()
	}
	return r.engine
}
