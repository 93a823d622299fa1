package insights

import (
	"math"
	"testing"

	"github.com/callscribe/callscribe/internal/models"
)

func msg(id string, typ models.MessageType, words int) models.Message {
	return models.Message{MessageID: id, Type: typ, WordCount: words}
}

func TestGenerateCounts(t *testing.T) {
	messages := []models.Message{
		msg("m1", models.MessageQuestion, 4),
		msg("m2", models.MessageResponse, 6),
		msg("m3", models.MessageStatement, 8),
		msg("m4", models.MessageInterruption, 2),
	}

	ins := Generate(nil, messages, 60)

	if ins.TotalMessages != 4 {
		t.Fatalf("total = %d", ins.TotalMessages)
	}
	if ins.QuestionCount != 1 || ins.ResponseCount != 1 || ins.StatementCount != 1 || ins.InterruptionCount != 1 {
		t.Fatalf("counts = %+v", ins)
	}
	if math.Abs(ins.AvgMessageWords-5) > 1e-9 {
		t.Fatalf("avg words = %v, want 5", ins.AvgMessageWords)
	}
	if ins.LongestMessageID != "m3" || ins.LongestMessageWords != 8 {
		t.Fatalf("longest = %s (%d words)", ins.LongestMessageID, ins.LongestMessageWords)
	}
}

func TestGenerateLongestTieKeepsFirst(t *testing.T) {
	messages := []models.Message{
		msg("first", models.MessageStatement, 7),
		msg("second", models.MessageStatement, 7),
	}
	ins := Generate(nil, messages, 0)
	if ins.LongestMessageID != "first" {
		t.Fatalf("longest = %s, want first on ties", ins.LongestMessageID)
	}
}

func TestGenerateEmpty(t *testing.T) {
	ins := Generate(nil, nil, 0)
	if ins.TotalMessages != 0 || ins.AvgMessageWords != 0 {
		t.Fatalf("empty insights = %+v", ins)
	}
	if ins.ConversationFlow != FlowDiscussion {
		t.Fatalf("flow = %q", ins.ConversationFlow)
	}
}

func TestClassifyFlow(t *testing.T) {
	mk := func(q, r, s, i int) *models.ConversationInsights {
		return &models.ConversationInsights{
			TotalMessages:     q + r + s + i,
			QuestionCount:     q,
			ResponseCount:     r,
			StatementCount:    s,
			InterruptionCount: i,
		}
	}

	cases := []struct {
		name string
		ins  *models.ConversationInsights
		want string
	}{
		{"qa pattern", mk(3, 3, 4, 0), FlowQuestionAnswer},
		{"interview", mk(5, 1, 4, 0), FlowInterview},
		{"meeting", mk(4, 5, 10, 1), FlowMeeting},
		{"monologue", mk(0, 0, 6, 4), FlowMonologue},
		{"discussion", mk(1, 3, 4, 2), FlowDiscussion},
	}
	for _, c := range cases {
		if got := classifyFlow(c.ins); got != c.want {
			t.Errorf("%s: got %q, want %q", c.name, got, c.want)
		}
	}
}

func TestGenerateSpeakingShares(t *testing.T) {
	speakers := []models.Speaker{
		{SpeakerID: "speaker_1", TotalSpeakingTime: 45},
		{SpeakerID: "speaker_2", TotalSpeakingTime: 15},
	}
	ins := Generate(speakers, nil, 90)

	if len(ins.SpeakingTime) != 2 {
		t.Fatalf("shares = %+v", ins.SpeakingTime)
	}
	if ins.SpeakingTime[0].Percentage != 50 {
		t.Fatalf("speaker 1 share = %v, want 50", ins.SpeakingTime[0].Percentage)
	}
	if ins.SpeakingTime[1].Percentage != 16.67 {
		t.Fatalf("speaker 2 share = %v, want 16.67", ins.SpeakingTime[1].Percentage)
	}
}

func TestGenerateSharesZeroDuration(t *testing.T) {
	ins := Generate([]models.Speaker{{SpeakerID: "speaker_1", TotalSpeakingTime: 5}}, nil, 0)
	if ins.SpeakingTime[0].Percentage != 0 {
		t.Fatalf("share with zero duration = %v", ins.SpeakingTime[0].Percentage)
	}
}
