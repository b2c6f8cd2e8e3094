package memory

import (
	"errors"
	"strings"

	"github.com/gmellini/recall/internal/llm"
)

const summaryExtractionSystem = `Extract:
1. A concise summary of the key information
2. Main topics discussed (comma-separated)
Format:
Summary: [your summary]
Topics: [topic1, topic2, topic3]`

const (
	summaryMarker = "Summary:"
	topicsMarker  = "Topics:"
)

// parseSummaryResponse splits a completion of the form
// "Summary: ...\nTopics: a, b, c" into its parts. Responses missing either
// marker yield a MalformedResponseError so callers can fall back.
func parseSummaryResponse(raw string) (summary string, topics []string, err error) {
	if !strings.Contains(raw, summaryMarker) || !strings.Contains(raw, topicsMarker) {
		return "", nil, &llm.MalformedResponseError{
			Raw: raw,
			Err: errors.New("missing Summary/Topics markers"),
		}
	}

	parts := strings.SplitN(raw, topicsMarker, 2)
	summary = strings.TrimSpace(strings.Replace(parts[0], summaryMarker, "", 1))
	for _, t := range strings.Split(parts[1], ",") {
		t = strings.TrimSpace(strings.Trim(strings.TrimSpace(t), "[]"))
		if t != "" {
			topics = append(topics, t)
		}
	}
	if summary == "" {
		return "", nil, &llm.MalformedResponseError{
			Raw: raw,
			Err: errors.New("empty summary segment"),
		}
	}
	return summary, topics, nil
}

// fallbackSummary is used whenever the completion call fails or its
// response cannot be parsed.
func fallbackSummary(turns []ConversationTurn) string {
	if len(turns) == 0 {
		return "Empty conversation..."
	}
	first := turns[0].Content
	if len(first) > 100 {
		first = first[:100]
	}
	return "Conversation starting with: " + first + "..."
}
