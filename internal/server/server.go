// Package server contains the HTTP handlers and page rendering for the application.
package server

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"log"
	"net/http"
	"time"

	"civichub/internal/cache"
	"civichub/internal/config"
	"civichub/internal/middleware"
	"civichub/internal/models"
	"civichub/internal/repository"
	"civichub/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/template/html/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

//go:embed views
var viewsFS embed.FS

//go:embed static
var staticFS embed.FS

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	userRepo       repository.UserRepository
	issueRepo      repository.IssueRepository
	commentRepo    repository.CommentRepository
	bookingRepo    repository.BookingRepository
	userService    *service.UserService
	issueService   *service.IssueService
	commentService *service.CommentService
	bookingService *service.BookingService
	adminService   *service.AdminService
}

// NewServerWithDeps creates a Server over connections opened by bootstrap.InitRuntime
// or by tests. redisClient may be nil.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if db == nil {
		return nil, errors.New("database is required")
	}

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("civichub"),
		userRepo:       repository.NewUserRepository(db),
		issueRepo:      repository.NewIssueRepository(db),
		commentRepo:    repository.NewCommentRepository(db),
		bookingRepo:    repository.NewBookingRepository(db),
	}

	s.userService = service.NewUserService(s.userRepo, s.issueRepo)
	s.issueService = service.NewIssueService(s.issueRepo, s.commentRepo, s.bookingRepo)
	s.commentService = service.NewCommentService(s.commentRepo, s.issueRepo)
	s.bookingService = service.NewBookingService(s.bookingRepo, s.issueRepo, cfg.BookingStrict)
	s.adminService = service.NewAdminService(s.userRepo, s.issueRepo)

	return s, nil
}

// NewApp builds the Fiber app with views, middleware and routes attached.
func (s *Server) NewApp() (*fiber.App, error) {
	views, err := fs.Sub(viewsFS, "views")
	if err != nil {
		return nil, err
	}

	engine := html.NewFileSystem(http.FS(views), ".html")
	engine.AddFunc("categoryLabel", models.CategoryLabel)
	engine.AddFunc("multiline", multiline)
	engine.AddFunc("date", func(t time.Time) string { return t.Format("January 2, 2006") })
	engine.AddFunc("datetime", func(t time.Time) string { return t.Format("2006-01-02 15:04") })

	app := fiber.New(fiber.Config{
		AppName:      "CivicHub",
		Views:        engine,
		ViewsLayout:  "layouts/base",
		ErrorHandler: s.ErrorHandler,
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// Context Middleware to propagate Request ID and trace ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	if s.config.CSRFEnabled {
		csrfConfig := csrf.Config{
			KeyLookup:      "form:" + csrfFormField,
			CookieName:     "csrf_",
			CookieSameSite: "Lax",
			CookieHTTPOnly: true,
			CookieSecure:   s.config.IsProduction(),
			Expiration:     2 * time.Hour,
			ContextKey:     csrfContextKey,
		}
		// Without Redis tokens live in process memory.
		if s.redis != nil {
			csrfConfig.Storage = cache.NewStorage(s.redis, "csrf:")
		}
		app.Use(csrf.New(csrfConfig))
	}

	app.Use(s.LoadFlashes())
	app.Use(s.LoadSession())
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	static, err := fs.Sub(staticFS, "static")
	if err == nil {
		app.Use("/static", filesystem.New(filesystem.Config{
			Root:   http.FS(static),
			MaxAge: 3600,
		}))
	}

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Pages
	app.Get("/", s.Index)
	app.Get("/index", s.Index)
	app.Get("/issues", s.Issues)
	app.Get("/about", s.About)
	app.Get("/contact", s.Contact)

	// Auth
	app.Get("/login", s.LoginPage)
	app.Post("/login", s.Login)
	app.Get("/signup", s.SignupPage)
	app.Post("/signup", s.Signup)
	app.Get("/logout", s.Logout)

	// Issue detail is public; commenting checks the session itself
	app.Get("/issue/:id<int>", s.IssueDetail)
	app.Post("/issue/:id<int>", s.PostComment)

	// Protected routes
	app.Get("/dashboard", s.LoginRequired(), s.Dashboard)
	app.Get("/post_issue", s.LoginRequired(), s.NewIssuePage)
	app.Post("/post_issue", s.LoginRequired(), s.PostIssue)
	app.Post("/book_slot/:id<int>", s.LoginRequired(), s.BookSlot)
	app.Post("/issue/:id<int>/delete", s.LoginRequired(), s.DeleteIssue)
	app.Get("/profile/:username", s.LoginRequired(), s.Profile)

	// Admin routes
	admin := app.Group("/admin", s.LoginRequired(), s.RoleRequired(models.RoleAdmin))
	admin.Get("/", s.AdminPanel)
	admin.Get("/monitor", monitor.New(monitor.Config{
		Title: "CivicHub Metrics",
	}))
}

// Start starts the server
func (s *Server) Start() error {
	app, err := s.NewApp()
	if err != nil {
		return err
	}
	s.app = app

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	// Close database connection
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	// Close Redis connection
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}

// LivenessCheck handles liveness check requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness check requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis only backs the user cache and logout revocation, so the app
	// can serve without it.
	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	} else if redisStatus != "healthy" {
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}
