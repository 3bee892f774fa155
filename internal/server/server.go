package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/officebites/gatetrack/internal/engine"
	"github.com/officebites/gatetrack/internal/model"
	"github.com/officebites/gatetrack/internal/ownership"
	"github.com/officebites/gatetrack/internal/repository"
	"github.com/officebites/gatetrack/internal/store"
	"github.com/officebites/gatetrack/internal/timewindow"
)

//go:generate mockgen -source server.go -destination=mocks/storage.go -package=mock_server

// Storage is the write/read surface the handlers need from the order store.
type Storage interface {
	Insert(ctx context.Context, in store.NewOrder) (*repository.Order, error)
	GetByID(ctx context.Context, id string) (*repository.Order, error)
	UpdateStatus(ctx context.Context, id string, next model.Status) error
	Delete(ctx context.Context, id string) error
	ListByRefs(ctx context.Context, refs []string, limit int) ([]*repository.Order, error)
	ListByCreatedRange(ctx context.Context, from, to time.Time, limit int) ([]*repository.Order, error)
}

type Server struct {
	storage  Storage
	book     *ownership.Book
	tracking *engine.View
	window   timewindow.Window
	logger   *zap.Logger
	server   *http.Server
	now      func() time.Time
}

func New(storage Storage, book *ownership.Book, tracking *engine.View, window timewindow.Window, logger *zap.Logger) *Server {
	return &Server{
		storage:  storage,
		book:     book,
		tracking: tracking,
		window:   window,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Server) Run(port string) error {
	router := s.setupRoutes()

	s.server = &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	s.logger.Info("server starting", zap.String("port", port))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

func (s *Server) setupRoutes() http.Handler {
	r := mux.NewRouter()
	r.Use(s.loggingMiddleware)

	// Fixed paths before the {id} routes so "mine" and friends never bind
	// as an order id.
	r.HandleFunc("/orders", s.handleCreateOrder).Methods(http.MethodPost)
	r.HandleFunc("/orders/mine", s.handleMyOrders).Methods(http.MethodGet)
	r.HandleFunc("/orders/today", s.handleTodayOrders).Methods(http.MethodGet)
	r.HandleFunc("/orders/history", s.handleOrderHistory).Methods(http.MethodGet)
	r.HandleFunc("/orders/{id}/status", s.handleUpdateStatus).Methods(http.MethodPut)
	r.HandleFunc("/orders/{id}", s.handleGetOrder).Methods(http.MethodGet)
	r.HandleFunc("/orders/{id}", s.handleDeleteOrder).Methods(http.MethodDelete)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("took", time.Since(start)))
	})
}
