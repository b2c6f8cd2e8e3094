package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gmellini/recall/internal/memory"
)

type saveConversationRequest struct {
	Messages []memory.ConversationTurn `json:"messages"`
	URL      string                    `json:"url"`
	Title    string                    `json:"title"`
}

type searchMemoryRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type updateMemoryRequest struct {
	Summary string `json:"summary"`
	Title   string `json:"title"`
}

func (s *Server) handleSaveConversation(w http.ResponseWriter, r *http.Request) {
	var req saveConversationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	rec, err := s.memories.Save(r.Context(), identity(r), req.Messages, req.URL, req.Title)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":        "success",
		"id":            rec.ID,
		"summary":       rec.Summary,
		"message_count": rec.MessageCount,
		"topics":        topicsOrDefault(rec.Topics),
	})
}

func (s *Server) handleSearchMemory(w http.ResponseWriter, r *http.Request) {
	var req searchMemoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	start := time.Now()
	hits, err := s.memories.Search(r.Context(), identity(r), req.Query, req.Limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	s.metrics.ObserveSearchLatency(time.Since(start))

	if hits == nil {
		hits = []memory.SearchHit{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"memories": hits})
}

func (s *Server) handleGetAllMemories(w http.ResponseWriter, r *http.Request) {
	records, err := s.memories.List(r.Context(), identity(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if records == nil {
		records = []memory.MemoryRecord{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"memories": records,
		"total":    len(records),
	})
}

func (s *Server) handleDeleteMemory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.memories.Delete(r.Context(), identity(r), id); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":     "success",
		"deleted_id": id,
	})
}

func (s *Server) handleUpdateMemory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req updateMemoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := s.memories.Update(r.Context(), identity(r), id, req.Summary, req.Title); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":     "success",
		"updated_id": id,
	})
}

func topicsOrDefault(topics []string) []string {
	if topics == nil {
		return []string{}
	}
	return topics
}
