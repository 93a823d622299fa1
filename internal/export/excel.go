// Package export renders a processed conversation into a spreadsheet report.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/callscribe/callscribe/internal/models"
)

// Workbook builds an xlsx report with overview, speakers, and messages sheets.
// The caller owns closing the returned file.
func Workbook(rec *models.ConversationRecord) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := writeOverview(f, rec); err != nil {
		return nil, err
	}
	if err := writeSpeakers(f, rec.Speakers); err != nil {
		return nil, err
	}
	if err := writeMessages(f, rec.Messages); err != nil {
		return nil, err
	}

	f.DeleteSheet("Sheet1")
	return f, nil
}

func writeOverview(f *excelize.File, rec *models.ConversationRecord) error {
	const sheet = "Overview"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	rows := [][]any{
		{"Conversation ID", rec.ConversationID},
		{"Title", rec.Metadata.Title},
		{"Status", string(rec.Status)},
		{"Language", rec.Metadata.Language},
		{"Duration (s)", rec.Metadata.DurationSeconds},
		{"Confidence", rec.Metadata.Confidence},
	}
	if ci := rec.Metadata.CostInfo; ci != nil {
		rows = append(rows,
			[]any{"Billed minutes", ci.BilledMinutes},
			[]any{"Total cost", fmt.Sprintf("%.4f %s", ci.TotalCost, ci.Currency)},
		)
	}
	if ins := rec.Insights; ins != nil {
		rows = append(rows,
			[]any{"Messages", ins.TotalMessages},
			[]any{"Questions", ins.QuestionCount},
			[]any{"Responses", ins.ResponseCount},
			[]any{"Statements", ins.StatementCount},
			[]any{"Interruptions", ins.InterruptionCount},
			[]any{"Avg message words", ins.AvgMessageWords},
			[]any{"Conversation flow", ins.ConversationFlow},
		)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func writeSpeakers(f *excelize.File, speakers []models.Speaker) error {
	const sheet = "Speakers"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	header := []any{"Speaker ID", "Label", "Assigned name", "Speaking time (s)", "Messages", "Avg confidence"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, s := range speakers {
		row := []any{s.SpeakerID, s.DisplayLabel, s.AssignedName, s.TotalSpeakingTime, s.MessageCount, s.AvgConfidence}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func writeMessages(f *excelize.File, messages []models.Message) error {
	const sheet = "Messages"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	header := []any{"Order", "Speaker", "Start (s)", "End (s)", "Type", "Words", "Confidence", "Text"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, m := range messages {
		row := []any{m.Order, m.SpeakerID, m.StartTime, m.EndTime, string(m.Type), m.WordCount, m.Confidence, m.Text}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
