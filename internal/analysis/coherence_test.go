package analysis

import (
	"strings"
	"testing"
)

const longAnswer = "Here is a detailed explanation of what causes the problem and exactly how you can resolve it step by step with a worked example included for clarity."

func TestAnalyzeShortHistoryIsNeutral(t *testing.T) {
	a := NewCoherenceAnalyzer(nil)
	result := a.Analyze([]Turn{
		{Role: RoleUser, Content: "My python code has a bug"},
		{Role: RoleAssistant, Content: longAnswer},
	})
	if result.CoherenceScore != 8.0 {
		t.Fatalf("CoherenceScore = %v, want exactly 8.0", result.CoherenceScore)
	}
	if len(result.Issues) != 0 {
		t.Fatalf("Issues = %v, want none for short history", result.Issues)
	}
}

func TestAnalyzeFocusedConversationScoresHigh(t *testing.T) {
	a := NewCoherenceAnalyzer(nil)
	result := a.Analyze([]Turn{
		{Role: RoleUser, Content: "My python code has a bug in the parsing function"},
		{Role: RoleAssistant, Content: longAnswer},
		{Role: RoleUser, Content: "The code still fails inside that python function"},
		{Role: RoleAssistant, Content: longAnswer},
	})
	if result.CoherenceScore != 10.0 {
		t.Fatalf("CoherenceScore = %v, want 10.0 for fully overlapping topics", result.CoherenceScore)
	}
	if len(result.Issues) != 0 {
		t.Fatalf("Issues = %v, want none", result.Issues)
	}
}

func TestAnalyzeDetectsTopicJumping(t *testing.T) {
	a := NewCoherenceAnalyzer(nil)
	result := a.Analyze([]Turn{
		{Role: RoleUser, Content: "I need to fix a bug in my code"},
		{Role: RoleAssistant, Content: longAnswer},
		{Role: RoleUser, Content: "Booking a flight and hotel for the summer"},
		{Role: RoleAssistant, Content: longAnswer},
		{Role: RoleUser, Content: "What stock should I invest my savings in"},
		{Role: RoleAssistant, Content: longAnswer},
	})
	if !contains(result.Issues, IssueTopicJumping) {
		t.Fatalf("Issues = %v, want %s", result.Issues, IssueTopicJumping)
	}
	if result.CoherenceScore != 3.0 {
		t.Fatalf("CoherenceScore = %v, want 3.0 for zero-overlap topics", result.CoherenceScore)
	}
}

func TestAnalyzeDetectsRepetitiveQuestions(t *testing.T) {
	a := NewCoherenceAnalyzer(nil)
	result := a.Analyze([]Turn{
		{Role: RoleUser, Content: "How do I center a div with css code"},
		{Role: RoleAssistant, Content: longAnswer},
		{Role: RoleUser, Content: "How do I center a div with css code"},
		{Role: RoleAssistant, Content: longAnswer},
		{Role: RoleUser, Content: "How do I center a div with css code please"},
		{Role: RoleAssistant, Content: longAnswer},
	})
	if !contains(result.Issues, IssueRepetitiveQuestions) {
		t.Fatalf("Issues = %v, want %s", result.Issues, IssueRepetitiveQuestions)
	}
}

func TestAnalyzeDetectsVagueResponse(t *testing.T) {
	a := NewCoherenceAnalyzer(nil)
	result := a.Analyze([]Turn{
		{Role: RoleUser, Content: "Which database fits my project code best"},
		{Role: RoleAssistant, Content: longAnswer},
		{Role: RoleUser, Content: "So which database should I actually pick"},
		{Role: RoleAssistant, Content: "It depends, maybe try a few of them."},
	})
	if !contains(result.Issues, IssueVagueResponse) {
		t.Fatalf("Issues = %v, want %s", result.Issues, IssueVagueResponse)
	}
}

func TestAnalyzeDetectsPotentiallyStuck(t *testing.T) {
	a := NewCoherenceAnalyzer(nil)
	var history []Turn
	for i := 0; i < 6; i++ {
		history = append(history,
			Turn{Role: RoleUser, Content: "Still debugging the same code issue"},
			Turn{Role: RoleAssistant, Content: longAnswer},
		)
	}
	result := a.Analyze(history)
	if !contains(result.Issues, IssuePotentiallyStuck) {
		t.Fatalf("Issues = %v, want %s", result.Issues, IssuePotentiallyStuck)
	}
}

func TestAnalyzeScoreStaysInRange(t *testing.T) {
	a := NewCoherenceAnalyzer(nil)
	histories := [][]Turn{
		nil,
		{{Role: RoleUser, Content: "hi"}},
		{
			{Role: RoleUser, Content: "bug in code"},
			{Role: RoleAssistant, Content: "ok"},
			{Role: RoleUser, Content: "flight to Rome"},
			{Role: RoleAssistant, Content: "ok"},
			{Role: RoleUser, Content: "budget and tax advice"},
			{Role: RoleAssistant, Content: "ok"},
		},
	}
	for i, h := range histories {
		result := a.Analyze(h)
		if result.CoherenceScore < 0 || result.CoherenceScore > 10 {
			t.Fatalf("history %d: CoherenceScore = %v, want within [0,10]", i, result.CoherenceScore)
		}
	}
}

func TestTopicDrift(t *testing.T) {
	a := NewCoherenceAnalyzer(nil)
	result := a.Analyze([]Turn{
		{Role: RoleUser, Content: "bug in my code"},
		{Role: RoleAssistant, Content: longAnswer},
	})
	if result.TopicDrift != 0.5 {
		t.Fatalf("TopicDrift = %v, want 0.5 (one topic over two turns)", result.TopicDrift)
	}
}

func TestJaccardEmptySideIsNeutral(t *testing.T) {
	if got := jaccard(nil, []string{"programming"}); got != 0.5 {
		t.Fatalf("jaccard(empty, x) = %v, want 0.5", got)
	}
}

func TestWordOverlapThreshold(t *testing.T) {
	a := wordSet(strings.ToLower("how do I fix this"))
	b := wordSet(strings.ToLower("how do I fix this today"))
	if got := jaccardSets(a, b); got <= 0.6 {
		t.Fatalf("jaccardSets() = %v, want > 0.6 for near-identical turns", got)
	}
}
