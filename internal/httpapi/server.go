package httpapi

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/gmellini/recall/internal/analysis"
	"github.com/gmellini/recall/internal/config"
	"github.com/gmellini/recall/internal/llm"
	"github.com/gmellini/recall/internal/memory"
	"github.com/gmellini/recall/internal/observability"
	"github.com/gmellini/recall/internal/ratelimit"
)

type Server struct {
	cfg            config.Config
	memories       *memory.Service
	analyzer       *analysis.CoherenceAnalyzer
	suggester      *analysis.SuggestionGenerator
	promptAnalyzer *analysis.PromptAnalyzer
	limiter        *ratelimit.Limiter
	metrics        *observability.Metrics
	upgrader       websocket.Upgrader
}

func New(cfg config.Config, memories *memory.Service, analyzer *analysis.CoherenceAnalyzer, suggester *analysis.SuggestionGenerator, promptAnalyzer *analysis.PromptAnalyzer, limiter *ratelimit.Limiter, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:            cfg,
		memories:       memories,
		analyzer:       analyzer,
		suggester:      suggester,
		promptAnalyzer: promptAnalyzer,
		limiter:        limiter,
		metrics:        metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Default: only allow browser websocket connections from the
				// same origin, so other websites cannot stream a user's
				// conversation here if the service is exposed beyond localhost.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.withRequestMetrics)
	r.Use(s.withQuota)

	r.Get("/", s.handleStatus)
	r.Get("/health", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/save_conversation", s.handleSaveConversation)
	r.Post("/search_memory", s.handleSearchMemory)
	r.Get("/get_all_memories", s.handleGetAllMemories)
	r.Delete("/delete_memory/{id}", s.handleDeleteMemory)
	r.Put("/update_memory/{id}", s.handleUpdateMemory)

	r.Post("/analyze_conversation_turn", s.handleAnalyzeTurn)
	r.Post("/suggest_followup", s.handleSuggestFollowup)
	r.Post("/analyze_conversation_quality", s.handleAnalyzeQuality)
	r.Post("/analyze_prompt", s.handleAnalyzePrompt)
	r.Get("/analyze_conversation/ws", s.handleAnalysisWS)

	return r
}

// quotaExempt lists paths that must stay reachable when a caller has
// exhausted the daily quota.
var quotaExempt = map[string]bool{
	"/":        true,
	"/health":  true,
	"/metrics": true,
}

func (s *Server) withQuota(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if quotaExempt[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}
		key := identity(r)
		if key == "" {
			key = remoteIP(r)
		}
		if !s.limiter.Allow(key, time.Now()) {
			s.metrics.QuotaRejections.WithLabelValues(r.URL.Path).Inc()
			respondError(w, http.StatusTooManyRequests, "quota_exceeded", "Daily limit reached. Try again tomorrow.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withRequestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		path := chi.RouteContext(r.Context()).RoutePattern()
		if path == "" {
			path = r.URL.Path
		}
		s.metrics.HTTPRequests.WithLabelValues(path, r.Method, strconv.Itoa(ww.Status())).Inc()
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	backingStore := "chromem"
	if s.cfg.DatabaseURL != "" {
		backingStore = "postgres"
	}
	embeddingModel := "hash"
	if s.cfg.OpenAIAPIKey != "" {
		embeddingModel = s.cfg.EmbeddingModel
		if embeddingModel == "" {
			embeddingModel = "text-embedding-3-small"
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":            "recall API running",
		"environment":       s.cfg.Environment,
		"openai_configured": s.promptAnalyzer != nil && s.promptAnalyzer.Configured(),
		"backing_store":     backingStore,
		"embedding_model":   embeddingModel,
		"latency":           s.metrics.Latency.Snapshot(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "healthy"})
}

// identity returns the caller's user id from the X-User-ID header, or an
// empty string when the header is absent.
func identity(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-User-ID"))
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// respondServiceError maps domain errors to their HTTP status. Anything
// unrecognized is treated as a backing store failure.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, memory.ErrMissingUser):
		respondError(w, http.StatusBadRequest, "missing_identity", "X-User-ID header is required")
	case errors.Is(err, memory.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", "memory not found")
	case errors.Is(err, memory.ErrUnauthorized):
		respondError(w, http.StatusForbidden, "unauthorized", "memory belongs to another user")
	case errors.Is(err, llm.ErrNotConfigured):
		respondError(w, http.StatusServiceUnavailable, "llm_not_configured", "OpenAI not configured")
	default:
		respondError(w, http.StatusServiceUnavailable, "backend_unavailable", err.Error())
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
