// Package insights derives conversation-level aggregates from a structured
// speaker roster and message sequence. Always recomputed wholesale.
package insights

import (
	"math"

	"github.com/callscribe/callscribe/internal/models"
)

// Conversation flow labels.
const (
	FlowQuestionAnswer = "question_answer_pattern"
	FlowInterview      = "interview"
	FlowMeeting        = "meeting"
	FlowMonologue      = "monologue"
	FlowDiscussion     = "discussion"
)

// Generate computes the full insight set for a completed structuring pass.
func Generate(speakers []models.Speaker, messages []models.Message, totalDuration float64) *models.ConversationInsights {
	ins := &models.ConversationInsights{TotalMessages: len(messages)}

	totalWords := 0
	for _, m := range messages {
		totalWords += m.WordCount
		switch m.Type {
		case models.MessageQuestion:
			ins.QuestionCount++
		case models.MessageResponse:
			ins.ResponseCount++
		case models.MessageStatement:
			ins.StatementCount++
		case models.MessageInterruption:
			ins.InterruptionCount++
		}
		// strict > keeps the first occurrence on ties
		if m.WordCount > ins.LongestMessageWords {
			ins.LongestMessageWords = m.WordCount
			ins.LongestMessageID = m.MessageID
		}
	}

	if len(messages) > 0 {
		ins.AvgMessageWords = float64(totalWords) / float64(len(messages))
	}

	ins.ConversationFlow = classifyFlow(ins)

	for _, s := range speakers {
		pct := 0.0
		if totalDuration > 0 {
			pct = round2(s.TotalSpeakingTime / totalDuration * 100)
		}
		ins.SpeakingTime = append(ins.SpeakingTime, models.SpeakingShare{
			SpeakerID:  s.SpeakerID,
			Seconds:    s.TotalSpeakingTime,
			Percentage: pct,
		})
	}

	return ins
}

func classifyFlow(ins *models.ConversationInsights) string {
	n := ins.TotalMessages
	if n == 0 {
		return FlowDiscussion
	}

	q := float64(ins.QuestionCount) / float64(n)
	r := float64(ins.ResponseCount) / float64(n)
	s := float64(ins.StatementCount) / float64(n)

	switch {
	case q >= 0.25 && r >= 0.25:
		return FlowQuestionAnswer
	case q >= 0.40:
		return FlowInterview
	case n >= 20 && q >= 0.15:
		return FlowMeeting
	case r < 0.20 && s > 0.50:
		return FlowMonologue
	default:
		return FlowDiscussion
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
