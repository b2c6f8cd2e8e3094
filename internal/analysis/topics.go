// Package analysis scores conversation quality with lightweight heuristics
// and synthesizes follow-up suggestions. Nothing here persists state or
// calls out to a model except the prompt analyzer.
package analysis

import "strings"

// GeneralTopic is returned when no keyword group matches.
const GeneralTopic = "general"

type topicGroup struct {
	label    string
	keywords []string
}

// Groups are scanned in order so extracted topic labels keep a stable order.
var defaultTopicGroups = []topicGroup{
	{label: "programming", keywords: []string{
		"code", "bug", "function", "programming", "debug", "compile",
		"python", "javascript", "golang", "api", "algorithm", "database",
	}},
	{label: "writing", keywords: []string{
		"write", "writing", "essay", "article", "blog", "draft", "grammar",
		"paragraph", "story", "editor",
	}},
	{label: "business", keywords: []string{
		"business", "startup", "marketing", "sales", "strategy", "customer",
		"revenue", "pitch", "market",
	}},
	{label: "learning", keywords: []string{
		"learn", "study", "explain", "understand", "course", "teach",
		"practice", "tutorial", "lesson",
	}},
	{label: "creative", keywords: []string{
		"creative", "design", "music", "draw", "paint", "brainstorm",
		"sketch", "compose",
	}},
	{label: "health", keywords: []string{
		"health", "exercise", "diet", "sleep", "doctor", "workout",
		"symptom", "nutrition", "medicine",
	}},
	{label: "finance", keywords: []string{
		"money", "budget", "invest", "tax", "finance", "savings", "stock",
		"loan", "mortgage",
	}},
	{label: "travel", keywords: []string{
		"travel", "trip", "flight", "hotel", "itinerary", "vacation",
		"destination", "passport",
	}},
}

// TopicExtractor classifies free text into a non-exclusive set of topic
// labels by case-insensitive keyword matching.
type TopicExtractor struct {
	groups []topicGroup
}

func NewTopicExtractor() *TopicExtractor {
	return &TopicExtractor{groups: defaultTopicGroups}
}

// Extract returns every topic whose keyword group matches text. A topic
// matches when any of its keywords appears as a substring of the lower-cased
// input. When nothing matches the result is just GeneralTopic.
func (e *TopicExtractor) Extract(text string) []string {
	lower := strings.ToLower(text)
	var topics []string
	for _, g := range e.groups {
		for _, kw := range g.keywords {
			if strings.Contains(lower, kw) {
				topics = append(topics, g.label)
				break
			}
		}
	}
	if len(topics) == 0 {
		return []string{GeneralTopic}
	}
	return topics
}
