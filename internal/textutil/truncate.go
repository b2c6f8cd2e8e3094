// Package textutil provides text shortening helpers shared by summaries
// and analysis output.
package textutil

import "strings"

const (
	// Sentence boundaries are only honored past this share of maxLength.
	sentenceFloor = 0.5
	// Word boundaries are only honored past this share of maxLength.
	wordFloor = 0.7
)

// Truncate shortens text to at most maxLength characters, preferring a
// sentence boundary, then a word boundary, then a hard cut. Sentence cuts
// keep the terminating punctuation and carry no ellipsis; the other two
// append "...".
func Truncate(text string, maxLength int) string {
	if maxLength <= 0 {
		return ""
	}
	if len(text) <= maxLength {
		return text
	}

	window := text[:maxLength]

	if end := lastSentenceEnd(text, maxLength); end > 0 && float64(end) >= sentenceFloor*float64(maxLength) {
		return strings.TrimRight(text[:end], " \t\n\r")
	}

	if idx := strings.LastIndexAny(window, " \t\n\r"); idx > 0 && float64(idx) >= wordFloor*float64(maxLength) {
		return strings.TrimRight(text[:idx], " \t\n\r") + "..."
	}

	return strings.TrimRight(window, " \t\n\r") + "..."
}

// lastSentenceEnd returns the index just past the last sentence-terminating
// punctuation mark (optionally followed by a closing quote) within the first
// maxLength characters, provided whitespace follows it in the full text.
// Returns 0 if no such boundary exists.
func lastSentenceEnd(text string, maxLength int) int {
	best := 0
	for i := 0; i < maxLength; i++ {
		switch text[i] {
		case '.', '!', '?':
		default:
			continue
		}
		end := i + 1
		if end < maxLength && (text[end] == '"' || text[end] == '\'') {
			end++
		}
		if end < len(text) && isSpace(text[end]) {
			best = end
		}
	}
	return best
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
