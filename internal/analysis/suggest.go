package analysis

const maxSuggestions = 3

// Suggestions run from most to least urgent: issue fixes, then a focus
// reminder for low scores, then domain-specific tips.
var issueSuggestions = []struct {
	issue      string
	suggestion string
}{
	{IssueRepetitiveQuestions, "Try rephrasing your question with more specific details instead of repeating it."},
	{IssueVagueResponse, "Ask for concrete examples or a step-by-step breakdown."},
	{IssueTopicJumping, "Focus on one topic at a time before moving to the next."},
	{IssuePotentiallyStuck, "Summarize what you've learned so far and restart with a narrower question."},
}

const lowScoreSuggestion = "Remind the assistant of your main goal to keep the conversation focused."

const lowScoreThreshold = 6.0

var contextSuggestions = map[string][]string{
	"programming": {
		"Share the exact error message and a minimal code sample.",
		"Mention the language and framework versions you're using.",
	},
	"writing": {
		"Specify the audience and tone you're aiming for.",
		"Ask for feedback on one paragraph at a time.",
	},
	"learning": {
		"Ask for an analogy to something you already know.",
		"Request practice problems to check your understanding.",
	},
}

// SuggestionGenerator turns a coherence result into at most three
// deterministic, de-duplicated suggestion strings.
type SuggestionGenerator struct{}

func NewSuggestionGenerator() *SuggestionGenerator {
	return &SuggestionGenerator{}
}

// Suggest maps detected issues to fixed suggestions, appends a focus
// reminder for low scores, and pads with per-domain tips when context names
// a known domain. Output keeps generation order and is capped at three.
func (g *SuggestionGenerator) Suggest(result CoherenceResult, context string) []string {
	detected := toSet(result.Issues)
	seen := make(map[string]struct{})
	var out []string

	add := func(s string) {
		if len(out) >= maxSuggestions {
			return
		}
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	for _, is := range issueSuggestions {
		if _, ok := detected[is.issue]; ok {
			add(is.suggestion)
		}
	}

	if result.CoherenceScore < lowScoreThreshold {
		add(lowScoreSuggestion)
	}

	if len(out) < maxSuggestions {
		for i, s := range contextSuggestions[context] {
			if i >= 2 {
				break
			}
			add(s)
		}
	}

	return out
}
