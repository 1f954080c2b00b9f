package mcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/kicad-lcsc/internal/logger"
)

// DefaultVersion is reported when no build version is supplied.
const DefaultVersion = "dev"

// Server exposes the component pipeline to MCP clients.
type Server struct {
	ports   *Ports
	version string
	server  *mcp.Server
}

// Option customises a Server.
type Option func(*Server)

// WithVersion sets the implementation version announced to clients.
func WithVersion(v string) Option {
	return func(s *Server) {
		if v != "" {
			s.version = v
		}
	}
}

// NewServer builds a server over ports. Tools whose port is nil are
// not registered.
func NewServer(ports *Ports, opts ...Option) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	s := &Server{ports: ports, version: DefaultVersion}
	for _, opt := range opts {
		opt(s)
	}
	s.server = mcp.NewServer(&mcp.Implementation{Name: "kicad-lcsc", Version: s.version}, nil)

	s.registerTools()
	s.registerResources()
	logger.Debug("mcp: serving tools %s", strings.Join(ports.tools(), ", "))
	return s, nil
}

// Version is the announced implementation version.
func (s *Server) Version() string {
	return s.version
}

// Run serves JSON-RPC over stdio until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the streamable HTTP transport on addr until ctx is
// cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is RunHTTP on an existing listener. The listener is closed on
// return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("mcp http shutdown: %v", err)
		}
	}()

	logger.Info("mcp server listening on %s", ln.Addr())
	err := srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		<-stopped
		return nil
	}
	return err
}

// Handler is the streamable HTTP handler for this server.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)
}
