package web

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/formkeeper/internal/logging"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const shutdownTimeout = 5 * time.Second

// Server wraps a fiber.App with the shared middleware stack and a
// context-driven lifecycle.
type Server struct {
	address string
	app     *fiber.App
	logger  logging.Logger
}

func NewServer(address, name string, l logging.Logger) *Server {
	logger := l.With("module", "http_server")

	app := fiber.New(fiber.Config{
		AppName:               name,
		DisableStartupMessage: true,
		ErrorHandler:          ErrorHandler(logger),
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
	})
	app.Use(RequestLogger(logger))
	app.Use(recover.New())

	return &Server{address: address, app: app, logger: logger}
}

// App exposes the router so handler sets can mount their routes.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully, giving in-flight requests shutdownTimeout to finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.app.ShutdownWithContext(sctx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown error", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", ln.Addr().String())

	return s.app.Listener(ln)
}
