package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/bsv-blockchain/utxoledger/ulogger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes the registered collectors at /metrics over its own
// listener, independent of the query/submission HTTP surface. It
// satisfies servicemanager.Service so it can be started/stopped alongside
// the rest of the daemon's services.
type Server struct {
	logger ulogger.Logger
	addr   string
	srv    *http.Server
}

// NewServer builds a metrics server that will listen on addr once
// Start is called.
func NewServer(logger ulogger.Logger, addr string) *Server {
	return &Server{logger: logger, addr: addr}
}

func (s *Server) Init(_ context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	s.srv = &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: 20 * time.Second,
	}

	return nil
}

func (s *Server) Start(ctx context.Context, readyCh chan struct{}) error {
	go func() {
		<-ctx.Done()

		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.srv.Shutdown(stopCtx); err != nil {
			s.logger.Errorf("metrics server shutdown error: %s", err)
		}
	}()

	s.logger.Infof("metrics endpoint listening on %s/metrics", s.addr)
	close(readyCh)

	err := s.srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) Health(_ context.Context, _ bool) (int, string, error) {
	return http.StatusOK, "metrics", nil
}
