package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gmellini/recall/internal/llm"
)

func TestPromptAnalyzerNotConfigured(t *testing.T) {
	p := NewPromptAnalyzer(nil)
	if _, err := p.Analyze(context.Background(), "review this"); !errors.Is(err, llm.ErrNotConfigured) {
		t.Fatalf("Analyze() error = %v, want ErrNotConfigured", err)
	}
}

func TestPromptAnalyzerShortPrompt(t *testing.T) {
	completer := &llm.MockCompleter{Response: "{}"}
	p := NewPromptAnalyzer(completer)
	got, err := p.Analyze(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if got.Score != 0 || !strings.Contains(got.Analysis, "Start typing") {
		t.Fatalf("short prompt result = %+v, want zero score placeholder", got)
	}
	if completer.Calls != 0 {
		t.Fatalf("completer called %d times for short prompt, want 0", completer.Calls)
	}
}

func TestPromptAnalyzerParsesAndClamps(t *testing.T) {
	completer := &llm.MockCompleter{Response: `{
		"score": 12,
		"context": "programming",
		"strengths": ["a","b","c","d","e"],
		"suggestions": ["x","y","z","w"],
		"analysis": "Solid prompt."
	}`}
	p := NewPromptAnalyzer(completer)
	got, err := p.Analyze(context.Background(), "How do I profile a Go service?")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if got.Score != 10 {
		t.Fatalf("Score = %v, want clamped to 10", got.Score)
	}
	if len(got.Strengths) != 4 || len(got.Suggestions) != 3 {
		t.Fatalf("strengths/suggestions = %d/%d, want capped 4/3", len(got.Strengths), len(got.Suggestions))
	}
	if got.Context != "programming" {
		t.Fatalf("Context = %q, want programming", got.Context)
	}
}

func TestPromptAnalyzerStripsCodeFence(t *testing.T) {
	completer := &llm.MockCompleter{Response: "```json\n{\"score\": 6, \"context\": \"writing\", \"analysis\": \"ok\"}\n```"}
	p := NewPromptAnalyzer(completer)
	got, err := p.Analyze(context.Background(), "Please review my essay prompt")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if got.Score != 6 || got.Context != "writing" {
		t.Fatalf("fenced JSON result = %+v, want parsed score 6", got)
	}
}

func TestPromptAnalyzerMalformedResponseDegrades(t *testing.T) {
	completer := &llm.MockCompleter{Response: "sorry, I cannot produce JSON today"}
	p := NewPromptAnalyzer(completer)
	got, err := p.Analyze(context.Background(), "Review my prompt please")
	if err != nil {
		t.Fatalf("Analyze() error = %v, want degraded result instead", err)
	}
	if got.Score != 5.0 {
		t.Fatalf("Score = %v, want neutral 5.0 fallback", got.Score)
	}
	if !strings.Contains(got.Analysis, "sorry") {
		t.Fatalf("Analysis = %q, want raw response carried through", got.Analysis)
	}
}

func TestPromptAnalyzerUpstreamFailureDegrades(t *testing.T) {
	completer := &llm.MockCompleter{Err: errors.New("boom")}
	p := NewPromptAnalyzer(completer)
	got, err := p.Analyze(context.Background(), "Review my prompt please")
	if err != nil {
		t.Fatalf("Analyze() error = %v, want degraded result instead", err)
	}
	if got.Score != 3.0 {
		t.Fatalf("Score = %v, want degraded 3.0 fallback", got.Score)
	}
}
