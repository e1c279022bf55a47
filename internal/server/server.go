package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/relaydesk-hq/airtable-delete-relay/internal/config"
	"github.com/relaydesk-hq/airtable-delete-relay/internal/domain"
	"github.com/relaydesk-hq/airtable-delete-relay/internal/logger"
	"github.com/relaydesk-hq/airtable-delete-relay/pkg/sinks"
)

// Version is reported by the /version endpoint.
const Version = "1.0.0"

// RecordDeleter is the client surface the server depends on.
type RecordDeleter interface {
	DeleteRecord(ctx context.Context, baseID, table, recordID string) (domain.Record, error)
	DeleteRecords(ctx context.Context, baseID, table string, recordIDs []string) ([]domain.Record, error)
}

// Server exposes the deletion client over HTTP plus operational endpoints.
type Server struct {
	cfg    *config.Config
	client RecordDeleter
	fanout *sinks.Fanout
	log    logger.Logger
	srv    *http.Server
}

// New builds a server from config and a deletion client. The fanout is
// optional; when nil no audit events are emitted.
func New(cfg *config.Config, client RecordDeleter, fanout *sinks.Fanout, log logger.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if client == nil {
		return nil, fmt.Errorf("client must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}

	s := &Server{
		cfg:    cfg,
		client: client,
		fanout: fanout,
		log:    log,
	}
	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: s.Routes(),
	}
	return s, nil
}

// Routes builds the request router. Exposed so tests can drive handlers
// without opening a listener.
func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/version", s.handleVersion).Methods(http.MethodGet)
	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	r.HandleFunc("/api/records/{id}", s.handleDeleteRecord).Methods(http.MethodDelete)
	r.HandleFunc("/api/records/batch-delete", s.handleBatchDelete).Methods(http.MethodPost)
	return r
}

// Run serves until the context is cancelled. There is no drain period: once
// the signal arrives the listener closes and in-flight requests are cut.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.ListenAndServe()
	}()

	s.log.InfoObj("server listening", "server_state", map[string]any{
		"addr":        s.srv.Addr,
		"sinks_count": s.fanout.Size(),
	})

	select {
	case <-ctx.Done():
		s.log.InfoObj("server stopping", "reason", ctx.Err())
		if err := s.srv.Close(); err != nil {
			return fmt.Errorf("close server: %w", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	}
}
