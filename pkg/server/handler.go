package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Kushaagra05/First-Chatbot/pkg/provider"
	"github.com/Kushaagra05/First-Chatbot/pkg/research"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const (
	msgNotConfigured  = "No API provider configured"
	msgChatFailed     = "Failed to process chat message"
	msgResearchFailed = "Failed to generate research report"
)

type Handler struct {
	log *slog.Logger
	cfg Config
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeJSONError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, ErrorResponse{Error: msg})
}

func NewHandler(log *slog.Logger, cfg Config) (*Handler, error) {
	if log == nil {
		return nil, errors.New("logger is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("handler config validation failed: %w", err)
	}

	return &Handler{
		log: log,
		cfg: cfg,
	}, nil
}

// Router returns the API routes wrapped in the request middleware chain.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware(h.cfg.Clock))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
		MaxAge:           defaultCORSMaxAge,
	}))

	r.Get(HealthPath, h.healthHandler)
	r.Post(ChatPath, h.chatHandler)
	r.Post(ResearchPath, h.researchHandler)

	return r
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := h.cfg.Clock.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.log.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", h.cfg.Clock.Since(start),
			"requestID", middleware.GetReqID(r.Context()),
		)
	})
}

func (h *Handler) timestamp() string {
	return h.cfg.Clock.Now().UTC().Format(timestampLayout)
}

func (h *Handler) healthHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Provider:  h.cfg.Provider,
		Timestamp: h.timestamp(),
	})
}

func (h *Handler) chatHandler(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if !h.decodeJSON(w, r, ChatPath, &req) {
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		h.writeJSONError(w, http.StatusBadRequest, "Message is required")
		RequestErrorsTotal.WithLabelValues(ChatPath, "missing_message").Inc()
		return
	}

	history := make([]provider.Turn, 0, len(req.ConversationHistory))
	for _, m := range req.ConversationHistory {
		role := provider.Role(m.Role)
		if role != provider.RoleUser && role != provider.RoleAssistant {
			h.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid conversation history role %q", m.Role))
			RequestErrorsTotal.WithLabelValues(ChatPath, "invalid_role").Inc()
			return
		}
		history = append(history, provider.Turn{Role: role, Content: m.Content})
	}

	reply, err := h.cfg.Gateway.Chat(r.Context(), history, req.Message)
	if err != nil {
		h.writeFailure(w, ChatPath, msgChatFailed, err)
		return
	}

	h.writeJSON(w, http.StatusOK, ChatResponse{
		Reply:     reply,
		Provider:  h.cfg.Provider,
		Timestamp: h.timestamp(),
	})
}

func (h *Handler) researchHandler(w http.ResponseWriter, r *http.Request) {
	var req ResearchRequest
	if !h.decodeJSON(w, r, ResearchPath, &req) {
		return
	}

	if strings.TrimSpace(req.Topic) == "" {
		h.writeJSONError(w, http.StatusBadRequest, "Topic is required")
		RequestErrorsTotal.WithLabelValues(ResearchPath, "missing_topic").Inc()
		return
	}

	run, err := h.cfg.Researcher.Run(r.Context(), req.Topic)
	if err != nil {
		h.writeFailure(w, ResearchPath, msgResearchFailed, err)
		return
	}

	h.writeJSON(w, http.StatusOK, ResearchResponse{
		Report: run.Report,
		Metadata: ResearchMetadata{
			Research: run.Research,
			Summary:  run.Summary,
			Critique: run.Critique,
		},
		Provider:  h.cfg.Provider,
		Timestamp: h.timestamp(),
	})
}

// decodeJSON reads a size-limited JSON body into v. It writes the error
// response and returns false when the body is unusable.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, path string, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			h.writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
			RequestErrorsTotal.WithLabelValues(path, "request_body_too_large").Inc()
			return false
		}
		h.writeJSONError(w, http.StatusBadRequest, "invalid json")
		RequestErrorsTotal.WithLabelValues(path, "invalid_json").Inc()
		return false
	}
	return true
}

// writeFailure maps gateway and pipeline errors to a response. The cause is
// always attached as details.
func (h *Handler) writeFailure(w http.ResponseWriter, path, msg string, err error) {
	status := http.StatusInternalServerError
	reason := "request_failed"

	switch {
	case errors.Is(err, provider.ErrEmptyPrompt), errors.Is(err, research.ErrEmptyTopic):
		status = http.StatusBadRequest
		reason = "validation"
	case errors.Is(err, provider.ErrProviderNotConfigured):
		msg = msgNotConfigured
		reason = "not_configured"
	}

	var stageErr *research.StageError
	if errors.As(err, &stageErr) {
		reason = "stage_" + string(stageErr.Stage)
	}

	RequestErrorsTotal.WithLabelValues(path, reason).Inc()
	h.log.Error("request failed", "path", path, "status", status, "reason", reason, "error", err)
	h.writeJSON(w, status, ErrorResponse{Error: msg, Details: err.Error()})
}
