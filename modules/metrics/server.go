package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"
	"vsc-polls/lib/logger"
	a "vsc-polls/modules/aggregate"

	"github.com/chebyrash/promise"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes a registry on /metrics
type Server struct {
	server *http.Server
	log    logger.Logger
}

var _ a.Plugin = &Server{}

func NewServer(addr string, gatherer prometheus.Gatherer) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: logger.PrefixedLogger{Prefix: "metrics"},
	}
}

func (s *Server) Init() error {
	return nil
}

func (s *Server) Start() *promise.Promise[any] {
	return promise.New(func(resolve func(any), reject func(error)) {
		go func() {
			s.log.Info("serving metrics", "addr", s.server.Addr)
			if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.log.Error("metrics server failed", "err", err)
			}
		}()
		resolve(nil)
	})
}

func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}
