package analysis

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/gmellini/recall/internal/llm"
	"github.com/gmellini/recall/internal/textutil"
)

const promptAnalysisSystem = `You are an expert prompt engineering coach. Analyze the given prompt and provide:

1. A score from 0-10 (10 being excellent)
2. Context/domain detection (programming, writing, business, health, finance, travel, creative, learning, or general)
3. Specific strengths of the prompt
4. Actionable suggestions for improvement
5. Brief analysis explanation

Respond in JSON format:
{
  "score": 7.5,
  "context": "programming",
  "strengths": ["Clear question format", "Provides context"],
  "suggestions": ["Specify programming language", "Include error details"],
  "analysis": "This prompt shows good structure but could be more specific..."
}

Focus on specificity, context provision, clear instructions and appropriate length.`

const (
	maxStrengths      = 4
	maxTips           = 3
	maxAnalysisLength = 200
	minPromptLength   = 3
)

// PromptAnalysis is the typed result of a model-backed prompt review.
type PromptAnalysis struct {
	Score       float64  `json:"score"`
	Context     string   `json:"context"`
	Strengths   []string `json:"strengths"`
	Suggestions []string `json:"suggestions"`
	Analysis    string   `json:"analysis"`
}

// PromptAnalyzer asks a completion model to review a prompt. Upstream
// failures degrade to fixed fallback results rather than errors, so the
// analysis UX never blocks on the provider.
type PromptAnalyzer struct {
	completer llm.Completer
}

func NewPromptAnalyzer(completer llm.Completer) *PromptAnalyzer {
	return &PromptAnalyzer{completer: completer}
}

// Configured reports whether a completion backend is available.
func (p *PromptAnalyzer) Configured() bool { return p.completer != nil }

// Analyze reviews prompt text. The only error returned is
// llm.ErrNotConfigured; every upstream failure maps to a degraded result.
func (p *PromptAnalyzer) Analyze(ctx context.Context, prompt string) (PromptAnalysis, error) {
	if p.completer == nil {
		return PromptAnalysis{}, llm.ErrNotConfigured
	}

	prompt = strings.TrimSpace(prompt)
	if len(prompt) < minPromptLength {
		return PromptAnalysis{
			Score:       0,
			Context:     GeneralTopic,
			Strengths:   []string{},
			Suggestions: []string{},
			Analysis:    "Start typing to get AI-powered analysis...",
		}, nil
	}

	raw, err := p.completer.Complete(ctx, promptAnalysisSystem, "Analyze this prompt: '"+prompt+"'")
	if err != nil {
		log.Printf("prompt analysis upstream error: %v", err)
		return PromptAnalysis{
			Score:       3.0,
			Context:     GeneralTopic,
			Strengths:   []string{},
			Suggestions: []string{"AI analysis temporarily unavailable"},
			Analysis:    "Using fallback analysis due to provider issues",
		}, nil
	}

	result, err := parsePromptAnalysis(raw)
	if err != nil {
		log.Printf("prompt analysis parse error: %v", err)
		return PromptAnalysis{
			Score:       5.0,
			Context:     GeneralTopic,
			Strengths:   []string{"Processed by AI"},
			Suggestions: []string{"AI analysis completed"},
			Analysis:    textutil.Truncate(raw, maxAnalysisLength),
		}, nil
	}
	return result, nil
}

// parsePromptAnalysis decodes the model's JSON reply and normalizes it:
// score clamped to 0-10, strengths and suggestions capped, analysis text
// shortened. Malformed input yields an llm.MalformedResponseError.
func parsePromptAnalysis(raw string) (PromptAnalysis, error) {
	var result PromptAnalysis
	cleaned := stripCodeFence(raw)
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return PromptAnalysis{}, &llm.MalformedResponseError{Raw: raw, Err: err}
	}

	result.Score = clamp(result.Score, 0, 10)
	if result.Context == "" {
		result.Context = GeneralTopic
	}
	if len(result.Strengths) > maxStrengths {
		result.Strengths = result.Strengths[:maxStrengths]
	}
	if len(result.Suggestions) > maxTips {
		result.Suggestions = result.Suggestions[:maxTips]
	}
	if result.Analysis == "" {
		result.Analysis = "AI analysis completed"
	}
	result.Analysis = textutil.Truncate(result.Analysis, maxAnalysisLength)
	return result, nil
}

// stripCodeFence removes a surrounding markdown code fence, which chat
// models add to JSON output more often than not.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
