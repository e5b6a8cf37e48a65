package testutil

import (
	"context"
	"net/http"
)

// StubHTTPServer implements the server package's httpServer for tests.
type StubHTTPServer struct {
	AddrVal       string
	HandlerVal    http.Handler
	ListenCalls   int
	ShutdownCalls int
	ListenErr     error
	ShutdownErr   error
}

func (s *StubHTTPServer) ListenAndServe() error {
	s.ListenCalls++
	if s.ListenErr != nil {
		return s.ListenErr
	}
	return http.ErrServerClosed
}

func (s *StubHTTPServer) Shutdown(ctx context.Context) error {
	_ = ctx
	s.ShutdownCalls++
	return s.ShutdownErr
}

func (s *StubHTTPServer) Addr() string {
	return s.AddrVal
}

func (s *StubHTTPServer) Handler() http.Handler {
	return s.HandlerVal
}
