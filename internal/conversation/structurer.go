// Package conversation structures diarized segments into a speaker roster
// and an ordered message sequence.
package conversation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/callscribe/callscribe/internal/diarization"
	"github.com/callscribe/callscribe/internal/models"
)

// SpeakerID derives the stable id for a provider speaker tag.
func SpeakerID(tag int) string { return fmt.Sprintf("speaker_%d", tag) }

// Structure converts segmenter output into speakers and messages. Speakers are
// created once per distinct tag, in ascending tag order. Each segment with
// non-empty transcript becomes one message in original chronological order,
// with a 1-based sequential order and whitespace-split word count.
func Structure(out *diarization.Output) ([]models.Speaker, []models.Message) {
	type speakerAgg struct {
		speakingTime float64
		confidence   float64
		segments     int
	}
	aggs := map[int]*speakerAgg{}
	var tags []int
	for _, seg := range out.Segments {
		agg, ok := aggs[seg.SpeakerTag]
		if !ok {
			agg = &speakerAgg{}
			aggs[seg.SpeakerTag] = agg
			tags = append(tags, seg.SpeakerTag)
		}
		agg.speakingTime += seg.End - seg.Start
		agg.confidence += seg.Confidence
		agg.segments++
	}
	sort.Ints(tags)

	speakers := make([]models.Speaker, 0, len(tags))
	for _, tag := range tags {
		agg := aggs[tag]
		speakers = append(speakers, models.Speaker{
			SpeakerID:         SpeakerID(tag),
			DisplayLabel:      fmt.Sprintf("Speaker %d", tag),
			TotalSpeakingTime: agg.speakingTime,
			AvgConfidence:     agg.confidence / float64(agg.segments),
			AvgSegmentLength:  agg.speakingTime / float64(agg.segments),
		})
	}

	var messages []models.Message
	for _, seg := range out.Segments {
		text := strings.TrimSpace(seg.Transcript)
		if text == "" {
			continue
		}
		messages = append(messages, models.Message{
			MessageID:  uuid.NewString(),
			SpeakerID:  SpeakerID(seg.SpeakerTag),
			Text:       text,
			StartTime:  seg.Start,
			EndTime:    seg.End,
			Confidence: seg.Confidence,
			Type:       Classify(text),
			Order:      len(messages) + 1,
			WordCount:  len(strings.Fields(text)),
		})
	}

	// backfill message counts from the actual references
	counts := map[string]int{}
	for _, m := range messages {
		counts[m.SpeakerID]++
	}
	for i := range speakers {
		speakers[i].MessageCount = counts[speakers[i].SpeakerID]
	}

	return speakers, messages
}
