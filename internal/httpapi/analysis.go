package httpapi

import (
	"net/http"

	"github.com/gmellini/recall/internal/analysis"
)

type conversationRequest struct {
	Messages []analysis.Turn `json:"messages"`
	Context  string          `json:"context"`
}

type promptAnalysisRequest struct {
	Prompt string `json:"prompt"`
}

func (s *Server) handleAnalyzeTurn(w http.ResponseWriter, r *http.Request) {
	var req conversationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, s.analyzer.Analyze(req.Messages))
}

func (s *Server) handleSuggestFollowup(w http.ResponseWriter, r *http.Request) {
	var req conversationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	result := s.analyzer.Analyze(req.Messages)
	suggestions := s.suggester.Suggest(result, req.Context)
	if suggestions == nil {
		suggestions = []string{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"suggestions":     suggestions,
		"coherence_score": result.CoherenceScore,
	})
}

func (s *Server) handleAnalyzeQuality(w http.ResponseWriter, r *http.Request) {
	var req conversationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	result := s.analyzer.Analyze(req.Messages)
	suggestions := s.suggester.Suggest(result, req.Context)
	if suggestions == nil {
		suggestions = []string{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"analysis":    result,
		"suggestions": suggestions,
	})
}

func (s *Server) handleAnalyzePrompt(w http.ResponseWriter, r *http.Request) {
	var req promptAnalysisRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := s.promptAnalyzer.Analyze(r.Context(), req.Prompt)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
