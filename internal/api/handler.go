package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/RichardoC/elias/internal/models"
	"github.com/RichardoC/elias/internal/persona"
)

const (
	defaultConversationLimit = 20
	maxConversationLimit     = 100
)

type ChatService interface {
	HandleMessage(ctx context.Context, message, personaName string) (models.ChatResult, error)
}

type ConversationLister interface {
	ListConversations(ctx context.Context, limit int) ([]models.ConversationRecord, error)
}

type Handler struct {
	chat          ChatService
	conversations ConversationLister
	personas      *persona.Registry
	logger        *zap.Logger
}

func NewHandler(chat ChatService, conversations ConversationLister, personas *persona.Registry, logger *zap.Logger) *Handler {
	return &Handler{
		chat:          chat,
		conversations: conversations,
		personas:      personas,
		logger:        logger,
	}
}

type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type PersonasResponse struct {
	Personas []string `json:"personas"`
	Default  string   `json:"default"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}

// Routes wires every endpoint onto a chi router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)

	r.Post("/chat", h.HandleChat)
	r.Get("/health", h.Health)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Route("/api", func(r chi.Router) {
		r.Get("/personas", h.ListPersonas)
		r.Get("/conversations", h.ListConversations)
	})
	return r
}

func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.chat.HandleMessage(r.Context(), req.Message, req.Persona)
	if err != nil {
		h.logger.Error("Failed to process message",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, fmt.Sprintf("internal server error: %v", err))
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Message: "Elias assistant API is healthy",
	})
}

func (h *Handler) ListPersonas(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, PersonasResponse{
		Personas: h.personas.Names(),
		Default:  models.DefaultPersona,
	})
}

func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	limit := defaultConversationLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = min(n, maxConversationLimit)
	}

	records, err := h.conversations.ListConversations(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list conversations", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Debug("Retrieved conversations",
		zap.Int("count", len(records)),
		zap.String("path", r.URL.Path))
	h.writeJSON(w, http.StatusOK, records)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, detail string) {
	h.writeJSON(w, status, ErrorResponse{Detail: detail})
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			h.logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		}()
		next.ServeHTTP(ww, r)
	})
}
