package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	votingservice "pollster/contexts/community-polls/voting-service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	_ "pollster/internal/platform/httpserver/docs"
)

type Server struct {
	mux      *http.ServeMux
	server   *http.Server
	logger   *slog.Logger
	addr     string
	voting   votingservice.Module
	tokens   VoterTokenVerifier
	gatherer prometheus.Gatherer
}

// New wires the voting routes. A nil gatherer falls back to the default
// prometheus registry.
func New(
	voting votingservice.Module,
	tokens VoterTokenVerifier,
	gatherer prometheus.Gatherer,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		addr:     addr,
		voting:   voting,
		tokens:   tokens,
		gatherer: gatherer,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("GET /api/voting/v1/questions", s.withVoter(s.handleListQuestions))
	s.mux.HandleFunc("GET /api/voting/v1/questions/{question_id}", s.withVoter(s.handleGetQuestion))
	s.mux.HandleFunc("GET /api/voting/v1/questions/{question_id}/results", s.withVoter(s.handleResults))
	s.mux.HandleFunc("POST /api/voting/v1/votes", s.withVoter(s.handleSubmitVote))
	s.mux.HandleFunc("GET /api/voting/v1/users/me/votes", s.withVoter(s.handleUserVotes))

	s.mux.HandleFunc("POST /api/voting/v1/admin/questions", s.withAdmin(s.handleCreateQuestion))
	s.mux.HandleFunc("PUT /api/voting/v1/admin/questions/{question_id}", s.withAdmin(s.handleUpdateQuestion))
	s.mux.HandleFunc("DELETE /api/voting/v1/admin/questions/{question_id}", s.withAdmin(s.handleDeleteQuestion))
	s.mux.HandleFunc("POST /api/voting/v1/admin/answer-options", s.withAdmin(s.handleCreateAnswerOption))
	s.mux.HandleFunc("PUT /api/voting/v1/admin/answer-options/{answer_id}", s.withAdmin(s.handleUpdateAnswerOption))
	s.mux.HandleFunc("DELETE /api/voting/v1/admin/answer-options/{answer_id}", s.withAdmin(s.handleDeleteAnswerOption))
	s.mux.HandleFunc("POST /api/voting/v1/admin/api-keys", s.withAdmin(s.handleGenerateAPIKey))
	s.mux.HandleFunc("GET /api/voting/v1/admin/api-keys", s.withAdmin(s.handleListAPIKeys))
	s.mux.HandleFunc("DELETE /api/voting/v1/admin/api-keys/{api_key_id}", s.withAdmin(s.handleDeleteAPIKey))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
