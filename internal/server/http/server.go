package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/ingestgate/internal/logging"
	"golang.org/x/time/rate"
)

type Options struct {
	Address         string
	MaxUploadMemory int64
	Limiter         *rate.Limiter
	ShutdownTimeout time.Duration
}

type HTTPServer struct {
	opts   Options
	logger logging.Logger
	srv    *http.Server
}

func NewHTTPServer(o Options, u Uploader, l logging.Logger) *HTTPServer {
	l = l.With("module", "http_server")
	if o.MaxUploadMemory <= 0 {
		o.MaxUploadMemory = 32 << 20
	}
	if o.ShutdownTimeout <= 0 {
		o.ShutdownTimeout = 10 * time.Second
	}
	return &HTTPServer{
		opts:   o,
		logger: l,
		srv: &http.Server{
			Addr:              o.Address,
			Handler:           NewRouter(u, o.MaxUploadMemory, o.Limiter, l),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// NewRouter wires the endpoints and middleware.
func NewRouter(u Uploader, maxMemory int64, lim *rate.Limiter, l logging.Logger) http.Handler {
	h := &handler{uploader: u, maxMemory: maxMemory, logger: l}

	mux := http.NewServeMux()
	mux.Handle("POST "+UploadPath, withRateLimit(lim, http.HandlerFunc(h.upload)))
	mux.HandleFunc("GET "+HealthPath, health)

	return withRequestID(withLogging(l, mux))
}

func (s *HTTPServer) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.opts.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}

// Serve accepts connections on lis until ctx is cancelled, then drains
// in-flight requests for at most ShutdownTimeout.
func (s *HTTPServer) Serve(ctx context.Context, lis net.Listener) error {
	done := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ShutdownTimeout)
		defer cancel()
		done <- s.srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", lis.Addr().String())

	if err := s.srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-done
}
