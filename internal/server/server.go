// Package server contains the HTTP handlers and routing for the API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	_ "socialnest/docs" // swagger docs
	"socialnest/internal/bootstrap"
	"socialnest/internal/cache"
	"socialnest/internal/config"
	"socialnest/internal/database"
	"socialnest/internal/media"
	"socialnest/internal/middleware"
	"socialnest/internal/models"
	"socialnest/internal/repository"
	"socialnest/internal/service"
	"socialnest/internal/token"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	store          media.Store
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	denylist       *cache.Denylist
	authService    *service.AuthService
	followService  *service.FollowService
	feedService    *service.FeedService
	postService    *service.PostService
	commentService *service.CommentService
	profileService *service.ProfileService
}

// NewServer initializes the runtime and the media backend, then wires the services.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	db, redisClient, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.OptionsFromConfig(cfg))
	if err != nil {
		return nil, err
	}

	store, err := media.NewStoreFromConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("media store: %w", err)
	}

	return NewServerWithDeps(cfg, db, redisClient, store)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Tests and the bootstrap layer use it directly.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, store media.Store) (*Server, error) {
	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	var mediaSvc *media.Service
	if store != nil {
		mediaSvc = media.NewService(store, cfg.MediaMaxUploadMB)
	}
	denylist := cache.NewDenylist(redisClient)

	return &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		store:          store,
		promMiddleware: middleware.InitMetrics("socialnest-api"),
		denylist:       denylist,
		authService:    service.NewAuthService(userRepo, token.FromConfig(cfg), denylist),
		followService:  service.NewFollowService(userRepo, followRepo),
		feedService:    service.NewFeedService(userRepo, followRepo, postRepo, commentRepo),
		postService:    service.NewPostService(userRepo, postRepo, commentRepo, mediaSvc),
		commentService: service.NewCommentService(userRepo, postRepo, commentRepo),
		profileService: service.NewProfileService(userRepo, followRepo, postRepo, mediaSvc),
	}, nil
}

// App builds the fiber application with middleware and routes installed.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	maxUpload := s.config.MediaMaxUploadMB
	if maxUpload <= 0 {
		maxUpload = media.DefaultMaxUploadSizeMB
	}
	app := fiber.New(fiber.Config{
		AppName:      "SocialNest API",
		BodyLimit:    (maxUpload + 1) * 1024 * 1024,
		ErrorHandler: s.ErrorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// ErrorHandler renders errors that escape handlers. *fiber.Error keeps its status.
func (s *Server) ErrorHandler(c *fiber.Ctx, err error) error {
	if fe, ok := err.(*fiber.Error); ok {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
	}
	return respondError(c, err)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	// Tracing runs before the context middleware so the trace id reaches the logger.
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	if local, ok := s.store.(*media.LocalStore); ok {
		app.Static(s.mediaPrefix(), local.Dir(), fiber.Static{MaxAge: 86400})
	}

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "SocialNest Metrics Dashboard",
	}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	auth := api.Group("/auth")
	auth.Post("/register", s.Register)
	auth.Post("/login", s.Login)
	auth.Post("/refresh", s.Refresh)
	auth.Post("/logout", s.AuthRequired(), s.Logout)
	auth.Get("/me", s.AuthRequired(), s.Me)
	auth.Get("/protected", s.AuthRequired(), s.Protected)

	users := api.Group("/users")
	users.Get("/", s.UserRouteWorks)
	users.Get("/search", s.AuthRequired(), s.SearchUsers)
	users.Get("/username/:username", s.AuthRequired(), s.GetUserByUsername)
	users.Post("/:id/follow", s.AuthRequired(), s.FollowUser)
	users.Post("/:id/unfollow", s.AuthRequired(), s.UnfollowUser)

	profile := api.Group("/profile", s.AuthRequired())
	profile.Get("/me", s.GetMyProfile)
	profile.Put("/me", s.UpdateMyProfile)
	profile.Put("/editProfile", s.EditProfile)
	profile.Post("/upload-avatar", s.UploadAvatar)
	profile.Post("/upload-cover", s.UploadCover)
	profile.Get("/:userId", s.GetUserProfile)

	// Specific paths are registered before /:id.
	posts := api.Group("/posts")
	posts.Get("/", s.GetPosts)
	posts.Get("/newsfeed", s.AuthRequired(), s.NewsFeed)
	posts.Get("/explore", s.AuthRequired(), s.ExploreFeed)
	posts.Post("/create", s.AuthRequired(), s.CreatePost)
	posts.Delete("/comments/:commentId", s.AuthRequired(), s.DeleteComment)
	posts.Post("/:id/like", s.AuthRequired(), s.LikePost)
	posts.Post("/:id/unlike", s.AuthRequired(), s.UnlikePost)
	posts.Post("/:id/comment", s.AuthRequired(), s.AddComment)
	posts.Get("/:id", s.GetPost)
	posts.Put("/:id", s.AuthRequired(), s.UpdatePost)
	posts.Delete("/:id", s.AuthRequired(), s.DeletePost)
}

func (s *Server) mediaPrefix() string {
	if s.config.MediaBaseURL != "" && s.config.MediaBaseURL[0] == '/' {
		return s.config.MediaBaseURL
	}
	return "/media"
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports database, Redis and media backend health. Redis is optional:
// without it the service runs with the access-token denylist disabled.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	checks := fiber.Map{}
	healthy := true

	checks["database"] = "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		checks["database"] = "unhealthy"
		healthy = false
	}

	switch {
	case !s.denylist.Enabled():
		checks["redis"] = "disabled"
	case s.denylist.Ping(ctx) != nil:
		checks["redis"] = "unhealthy"
		healthy = false
	default:
		checks["redis"] = "healthy"
	}

	if p, ok := s.store.(interface{ Ping(context.Context) error }); ok {
		checks["media"] = "healthy"
		if err := p.Ping(ctx); err != nil {
			checks["media"] = "unhealthy"
			healthy = false
		}
	}

	status, overall := fiber.StatusOK, "healthy"
	if !healthy {
		status, overall = fiber.StatusServiceUnavailable, "unhealthy"
	}
	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": checks,
		"time":   time.Now(),
	})
}

// Start listens on the configured port until Shutdown is called.
func (s *Server) Start() error {
	app := s.App()
	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown drains the HTTP listener, then closes the database and Redis.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
