package analysis

import "strings"

// Speaker roles accepted in a conversation history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Issue labels reported by the analyzer.
const (
	IssueRepetitiveQuestions = "repetitive_questions"
	IssueVagueResponse       = "vague_response"
	IssuePotentiallyStuck    = "potentially_stuck"
	IssueTopicJumping        = "topic_jumping"
)

// Turn is a single conversational exchange as seen by the analyzer.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CoherenceResult describes the topical continuity of a conversation.
// Computed fresh per request and never persisted.
type CoherenceResult struct {
	CoherenceScore float64  `json:"coherence_score"`
	Issues         []string `json:"issues"`
	TopicDrift     float64  `json:"topic_drift"`
	Depth          string   `json:"depth"`
	TurnCount      int      `json:"turn_count"`
}

// Conversations shorter than this get the fixed neutral score.
const minTurnsForAnalysis = 4

const neutralScore = 8.0

// CoherenceAnalyzer derives a 0-10 coherence score and a set of detected
// issues from a conversation history.
type CoherenceAnalyzer struct {
	topics *TopicExtractor
}

func NewCoherenceAnalyzer(topics *TopicExtractor) *CoherenceAnalyzer {
	if topics == nil {
		topics = NewTopicExtractor()
	}
	return &CoherenceAnalyzer{topics: topics}
}

// Analyze scores history for topical continuity. Histories shorter than four
// turns return a neutral result with no issues.
func (a *CoherenceAnalyzer) Analyze(history []Turn) CoherenceResult {
	result := CoherenceResult{
		TurnCount: len(history),
		Depth:     depthLabel(len(history)),
	}

	if len(history) < minTurnsForAnalysis {
		result.CoherenceScore = neutralScore
		result.TopicDrift = a.topicDrift(history)
		return result
	}

	var userTurns []Turn
	var topicSets [][]string
	for _, t := range history {
		if t.Role != RoleUser {
			continue
		}
		userTurns = append(userTurns, t)
		topicSets = append(topicSets, a.topics.Extract(t.Content))
	}

	result.CoherenceScore = coherenceScore(topicSets)
	result.TopicDrift = a.topicDrift(history)

	if repetitiveQuestions(userTurns) {
		result.Issues = append(result.Issues, IssueRepetitiveQuestions)
	}
	if vagueResponse(history) {
		result.Issues = append(result.Issues, IssueVagueResponse)
	}
	if len(history) > 10 {
		result.Issues = append(result.Issues, IssuePotentiallyStuck)
	}
	if topicJumping(topicSets) {
		result.Issues = append(result.Issues, IssueTopicJumping)
	}

	return result
}

// coherenceScore averages the Jaccard similarity of consecutive topic sets
// and rescales it to 0-10 with an upward bias, so zero-overlap conversations
// still land above the floor.
func coherenceScore(topicSets [][]string) float64 {
	var pairScores []float64
	for i := 1; i < len(topicSets); i++ {
		pairScores = append(pairScores, jaccard(topicSets[i-1], topicSets[i]))
	}

	avg := 0.5
	if len(pairScores) > 0 {
		sum := 0.0
		for _, s := range pairScores {
			sum += s
		}
		avg = sum / float64(len(pairScores))
	}

	return clamp(10*avg+3, 0, 10)
}

// topicDrift is the ratio of distinct topics mentioned by the user to the
// total number of turns.
func (a *CoherenceAnalyzer) topicDrift(history []Turn) float64 {
	if len(history) == 0 {
		return 0
	}
	distinct := make(map[string]struct{})
	for _, t := range history {
		if t.Role != RoleUser {
			continue
		}
		for _, topic := range a.topics.Extract(t.Content) {
			distinct[topic] = struct{}{}
		}
	}
	return float64(len(distinct)) / float64(len(history))
}

// repetitiveQuestions reports whether the first of the last three user turns
// closely repeats either of the two that follow it.
func repetitiveQuestions(userTurns []Turn) bool {
	if len(userTurns) < 3 {
		return false
	}
	last3 := userTurns[len(userTurns)-3:]
	first := wordSet(last3[0].Content)
	for _, other := range last3[1:] {
		if jaccardSets(first, wordSet(other.Content)) > 0.6 {
			return true
		}
	}
	return false
}

var hedgingPhrases = []string{
	"it depends",
	"maybe",
	"perhaps",
	"i'm not sure",
	"there are many ways",
	"it varies",
}

// vagueResponse flags the most recent assistant turn when it hedges twice
// or says almost nothing.
func vagueResponse(history []Turn) bool {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role != RoleAssistant {
			continue
		}
		content := strings.ToLower(history[i].Content)
		hedges := 0
		for _, phrase := range hedgingPhrases {
			if strings.Contains(content, phrase) {
				hedges++
			}
		}
		return hedges >= 2 || len(strings.Fields(content)) < 20
	}
	return false
}

// topicJumping reports whether topics almost never repeat across user turns.
func topicJumping(topicSets [][]string) bool {
	total := 0
	distinct := make(map[string]struct{})
	for _, set := range topicSets {
		total += len(set)
		for _, topic := range set {
			distinct[topic] = struct{}{}
		}
	}
	if total == 0 {
		return false
	}
	return float64(len(distinct)) > 0.8*float64(total)
}

func depthLabel(turns int) string {
	switch {
	case turns < 6:
		return "shallow"
	case turns < 12:
		return "moderate"
	default:
		return "deep"
	}
}

// jaccard computes intersection/union over two topic slices; an empty side
// counts as a neutral 0.5 overlap.
func jaccard(a, b []string) float64 {
	return jaccardSets(toSet(a), toSet(b))
}

func jaccardSets(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.5
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}

func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(text)) {
		set[w] = struct{}{}
	}
	return set
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
