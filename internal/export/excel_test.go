package export

import (
	"testing"

	"github.com/callscribe/callscribe/internal/models"
)

func TestWorkbook(t *testing.T) {
	rec := &models.ConversationRecord{
		ConversationID: "conv-1",
		Status:         models.StatusCompleted,
		Metadata: models.ConversationMetadata{
			Title:           "Quarterly review",
			Language:        "en-US",
			DurationSeconds: 120,
			CostInfo:        &models.CostInfo{BilledMinutes: 2, TotalCost: 0.05, Currency: "USD"},
		},
		Speakers: []models.Speaker{
			{SpeakerID: "speaker_1", DisplayLabel: "Speaker 1", AssignedName: "Dana", TotalSpeakingTime: 80, MessageCount: 2},
			{SpeakerID: "speaker_2", DisplayLabel: "Speaker 2", TotalSpeakingTime: 40, MessageCount: 1},
		},
		Messages: []models.Message{
			{Order: 1, SpeakerID: "speaker_1", Text: "What changed this quarter?", Type: models.MessageQuestion, WordCount: 4},
			{Order: 2, SpeakerID: "speaker_2", Text: "Revenue is up.", Type: models.MessageResponse, WordCount: 3},
			{Order: 3, SpeakerID: "speaker_1", Text: "We should plan for growth.", Type: models.MessageStatement, WordCount: 5},
		},
		Insights: &models.ConversationInsights{TotalMessages: 3, QuestionCount: 1, ConversationFlow: "discussion"},
	}

	f, err := Workbook(rec)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	for _, sheet := range []string{"Overview", "Speakers", "Messages"} {
		if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
			t.Errorf("sheet %q missing (idx %d, err %v)", sheet, idx, err)
		}
	}
	// the default placeholder sheet is gone
	if idx, _ := f.GetSheetIndex("Sheet1"); idx >= 0 {
		t.Error("Sheet1 not deleted")
	}

	if got, _ := f.GetCellValue("Overview", "B1"); got != "conv-1" {
		t.Errorf("overview id = %q", got)
	}

	// header plus one row per speaker
	rows, err := f.GetRows("Speakers")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("speaker rows = %d, want 3", len(rows))
	}
	if rows[1][2] != "Dana" {
		t.Errorf("assigned name cell = %q", rows[1][2])
	}

	rows, err = f.GetRows("Messages")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("message rows = %d, want 4", len(rows))
	}
	if rows[3][7] != "We should plan for growth." {
		t.Errorf("message text cell = %q", rows[3][7])
	}
}

func TestWorkbookEmptyConversation(t *testing.T) {
	f, err := Workbook(&models.ConversationRecord{ConversationID: "conv-2", Status: models.StatusUploaded})
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := f.GetRows("Messages")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected header only, got %d rows", len(rows))
	}
}
