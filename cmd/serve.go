package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/complyeu/aiact-cli/internal/advisor"
	"github.com/complyeu/aiact-cli/internal/resilience"
	"github.com/complyeu/aiact-cli/internal/session"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for compliance consultations",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initAdvisor(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		store, err := session.NewStore(env.Advisor, cfg.Session.Capacity)
		if err != nil {
			return eris.Wrap(err, "create session store")
		}

		api := &apiServer{
			advisor:      env.Advisor,
			store:        store,
			breakerState: env.Completer.BreakerState,
			turnTimeout:  completionTimeout(cfg.Anthropic),
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: api.routes(cfg.Server.AllowedOrigins),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// apiServer exposes consultations over HTTP. Each session serializes its
// own consultation; distinct sessions run turns concurrently.
type apiServer struct {
	advisor      *advisor.Advisor
	store        *session.Store
	breakerState func() resilience.CircuitState
	turnTimeout  time.Duration
}

func (s *apiServer) routes(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/", s.handleInfo)
	r.Get("/health", s.handleHealth)
	r.Post("/session/new", s.handleNewSession)
	r.Post("/session/{id}/reset", s.handleReset)
	r.Delete("/session/{id}", s.handleDelete)
	r.Post("/chat", s.handleChat)

	return r
}

func (s *apiServer) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":        "aiact-cli",
		"description":    "EU AI Act compliance interview and risk classification",
		"corpus_chunks":  s.advisor.CorpusSize(),
		"initial_prompt": advisor.InitialPrompt,
	})
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":           "healthy",
		"sessions_count":   s.store.Len(),
		"completion_state": s.breakerState().String(),
	})
}

func (s *apiServer) handleNewSession(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	s.store.Get(id)
	writeJSON(w, http.StatusCreated, map[string]any{
		"session_id":     id,
		"initial_prompt": advisor.InitialPrompt,
	})
}

func (s *apiServer) handleReset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess := s.store.Get(id)
	sess.Lock()
	sess.Consultation.Reset()
	sess.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "reset",
		"session_id":     id,
		"initial_prompt": advisor.InitialPrompt,
	})
}

func (s *apiServer) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.store.Delete(id) {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "session not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted", "session_id": id})
}

func (s *apiServer) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content   string `json:"content"`
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "content is required"})
		return
	}
	if req.SessionID == "" {
		req.SessionID = "default"
	}

	ctx := r.Context()
	if s.turnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.turnTimeout)
		defer cancel()
	}

	sess := s.store.Get(req.SessionID)
	sess.Lock()
	defer sess.Unlock()

	content := strings.TrimSpace(req.Content)
	var reply advisor.Reply
	var err error
	switch {
	case strings.EqualFold(content, "reset"):
		sess.Consultation.Reset()
		reply = advisor.Reply{Message: advisor.InitialPrompt, Progress: sess.Consultation.Progress()}
	case strings.EqualFold(content, "retry"):
		reply, err = sess.Consultation.ResumeQuestioning(ctx)
	default:
		reply, err = sess.Consultation.Submit(ctx, content)
	}

	if err != nil {
		zap.L().Warn("chat turn failed",
			zap.String("session_id", req.SessionID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"error": "assessment service temporarily unavailable",
			"hint":  "your input was recorded; send 'retry' to continue",
		})
		return
	}

	writeJSON(w, http.StatusOK, reply)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
