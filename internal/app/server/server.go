package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/symph-co/shorturl/internal/app/service"
	inthttp "github.com/symph-co/shorturl/internal/http/handler"
	"github.com/symph-co/shorturl/internal/http/middleware"
	"go.uber.org/zap"
)

const (
	readTimeout  = 10 * time.Second
	writeTimeout = 10 * time.Second
	idleTimeout  = 60 * time.Second
)

// Dependencies bundles infrastructure dependencies required by the HTTP server.
// Postgres and Redis only feed the health probe and may be nil.
type Dependencies struct {
	Logger   *zap.Logger
	Postgres *pgxpool.Pool
	Redis    redis.UniversalClient
	Links    service.LinkService
}

// Server wraps the Fiber application and its dependencies.
type Server struct {
	app  *fiber.App
	deps Dependencies
}

// New creates a new HTTP server instance with default routes.
func New(deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:               "shorturl",
		ErrorHandler:          middleware.ErrorHandler(),
		ReadTimeout:           readTimeout,
		WriteTimeout:          writeTimeout,
		IdleTimeout:           idleTimeout,
		DisableStartupMessage: true,
	})

	s := &Server{
		app:  app,
		deps: deps,
	}

	s.registerMiddleware()
	s.registerRoutes()
	return s
}

// App exposes the underlying fiber application, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts the Fiber server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the Fiber server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) registerMiddleware() {
	s.app.Use(
		middleware.Recovery(s.deps.Logger),
		middleware.RequestID(),
		middleware.Metrics(),
		middleware.Logger(s.deps.Logger.Named("http")),
		middleware.CORS(),
	)
}

// registerRoutes mounts the catch-all slug routes last so fixed paths win.
func (s *Server) registerRoutes() {
	inthttp.NewHealthHandler(inthttp.HealthDeps{
		Logger: s.deps.Logger,
		Checks: s.healthChecks(),
	}).Register(s.app)

	inthttp.NewAPIHandler(inthttp.APIDeps{
		Logger:      s.deps.Logger,
		LinkService: s.deps.Links,
	}).Register(s.app)

	inthttp.NewRedirectHandler(inthttp.RedirectDeps{
		Logger:      s.deps.Logger,
		LinkService: s.deps.Links,
	}).Register(s.app)
}

func (s *Server) healthChecks() map[string]inthttp.Check {
	checks := make(map[string]inthttp.Check)
	if s.deps.Postgres != nil {
		checks["postgres"] = s.deps.Postgres.Ping
	}
	if s.deps.Redis != nil {
		rdb := s.deps.Redis
		checks["redis"] = func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}
	}
	return checks
}
