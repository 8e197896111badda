package rest

import (
	"context"
	"net/http"
	"sync"
	"time"

	"cosmossdk.io/log"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/paw-chain/taskmarket/x/market/types"
)

// Config holds server configuration
type Config struct {
	ListenAddr     string
	EnableCORS     bool
	AllowedOrigins []string
}

// DefaultConfig returns the default gateway configuration.
func DefaultConfig() Config {
	return Config{
		ListenAddr:     "127.0.0.1:1318",
		EnableCORS:     true,
		AllowedOrigins: []string{"*"},
	}
}

// Server exposes the market queries and module metrics over HTTP
type Server struct {
	httpServer *http.Server
	router     *mux.Router
	logger     log.Logger
	wg         sync.WaitGroup
}

// NewServer creates a new HTTP gateway over qs.
func NewServer(cfg Config, qs types.QueryServer, ctxProvider func() context.Context, logger log.Logger) *Server {
	router := mux.NewRouter()
	NewHandler(qs, ctxProvider).RegisterRoutes(router)
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Apply middleware
	var httpHandler http.Handler = router
	if cfg.EnableCORS {
		httpHandler = handlers.CORS(
			handlers.AllowedOrigins(cfg.AllowedOrigins),
			handlers.AllowedMethods([]string{"GET", "OPTIONS"}),
			handlers.AllowedHeaders([]string{"Content-Type", ClientIDHeader}),
		)(httpHandler)
	}
	httpHandler = handlers.RecoveryHandler(handlers.PrintRecoveryStack(false))(httpHandler)

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           httpHandler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		router: router,
		logger: logger.With("module", "x/"+types.ModuleName, "component", "rest"),
	}
}

// Handler returns the root HTTP handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves in the background until Stop is called
func (s *Server) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Info("market gateway listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("market gateway stopped", "error", err)
		}
	}()
}

// Stop shuts the server down and waits for it to exit
func (s *Server) Stop(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.wg.Wait()
	return err
}
