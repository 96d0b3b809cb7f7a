package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"jobboard-activity/internal/models"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// ActivityRepository is the persistence the activity endpoint needs.
type ActivityRepository interface {
	InsertActivity(ctx context.Context, req models.ActivityRequest) (int64, error)
	ListUserActivity(ctx context.Context, userID string, limit int) ([]models.ActivityRow, error)
	CountUserActivity(ctx context.Context, userID string, types ...models.ActivityType) (int, error)
	Ping(ctx context.Context) error
}

// Server serves the remote activity log over HTTP.
type Server struct {
	addr       string
	repo       ActivityRepository
	logger     *zap.Logger
	router     *mux.Router
	httpServer *http.Server
	isDup      func(err error) bool
}

// New builds the server. isDuplicate reports whether an insert error means
// the idempotency key was already stored.
func New(addr string, repo ActivityRepository, isDuplicate func(err error) bool, logger *zap.Logger) *Server {
	if isDuplicate == nil {
		isDuplicate = func(error) bool { return false }
	}

	s := &Server{
		addr:   addr,
		repo:   repo,
		logger: logger,
		isDup:  isDuplicate,
	}
	s.setupRouter()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupRouter() {
	r := mux.NewRouter()

	r.Use(Logging(s.logger))
	r.Use(Recovery(s.logger))

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/activity", s.recordActivity).Methods(http.MethodPost)
	api.HandleFunc("/activity", s.listActivity).Methods(http.MethodGet)
	api.HandleFunc("/activity/count", s.countActivity).Methods(http.MethodGet)

	s.router = r
}

func (s *Server) Router() *mux.Router {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info("activity API server starting", zap.String("addr", s.addr))

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("shutting down activity API server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	return nil
}
