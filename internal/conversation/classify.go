package conversation

import (
	"strings"

	"github.com/callscribe/callscribe/internal/models"
)

// Lexical decision lists for message classification. Best-effort heuristics,
// not NLU; checked in priority order with first match winning, so the result
// is total and deterministic for any non-empty text.

var questionStarters = []string{
	"what", "how", "when", "where", "why", "who",
	"can", "could", "would", "should", "do", "does", "did", "is", "are", "will",
}

var responseStarters = []string{"yes", "no", "sure", "okay", "right", "exactly"}

var responseMarkers = []string{"i think", "i believe", "i would say"}

var interruptionMarkers = []string{"wait", "sorry", "excuse me", "hold on"}

const interruptionMaxLen = 10

// Classify assigns exactly one type to a non-empty, trimmed message text.
func Classify(text string) models.MessageType {
	if text == "" {
		return models.MessageUnknown
	}

	lower := strings.ToLower(text)
	first := firstToken(lower)

	if strings.HasSuffix(text, "?") || contains(questionStarters, first) {
		return models.MessageQuestion
	}

	if contains(responseStarters, first) {
		return models.MessageResponse
	}
	for _, m := range responseMarkers {
		if strings.Contains(lower, m) {
			return models.MessageResponse
		}
	}

	if len(text) < interruptionMaxLen {
		return models.MessageInterruption
	}
	for _, m := range interruptionMarkers {
		if strings.Contains(lower, m) {
			return models.MessageInterruption
		}
	}

	return models.MessageStatement
}

func firstToken(lower string) string {
	fields := strings.Fields(lower)
	if len(fields) == 0 {
		return ""
	}
	return strings.Trim(fields[0], ".,!?;:\"'")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
