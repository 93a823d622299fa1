package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ConversationStatus string

const (
	StatusUploaded   ConversationStatus = "uploaded"
	StatusProcessing ConversationStatus = "processing"
	StatusCompleted  ConversationStatus = "completed"
	StatusFailed     ConversationStatus = "failed"
)

// Stage names form the fixed processing sequence recorded in the log.
// StageError only ever appears in failure log entries.
type Stage string

const (
	StageUpload        Stage = "upload"
	StageValidation    Stage = "validation"
	StageDiarization   Stage = "diarization"
	StageTranscription Stage = "transcription"
	StageParsing       Stage = "parsing"
	StageInsights      Stage = "insights"
	StageCompletion    Stage = "completion"
	StageError         Stage = "error"
)

type MessageType string

const (
	MessageQuestion     MessageType = "question"
	MessageResponse     MessageType = "response"
	MessageStatement    MessageType = "statement"
	MessageInterruption MessageType = "interruption"
	MessageUnknown      MessageType = "unknown"
)

type ConversationRecord struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	ConversationID string             `bson:"conversation_id" json:"conversation_id"` // uuid v4
	RecordingID    string             `bson:"recording_id,omitempty" json:"recording_id,omitempty"`
	UserID         string             `bson:"user_id,omitempty" json:"user_id,omitempty"`

	Status   ConversationStatus   `bson:"status" json:"status"`
	AudioURI string               `bson:"audio_uri,omitempty" json:"audio_uri,omitempty"`
	Metadata ConversationMetadata `bson:"metadata" json:"metadata"`

	Speakers []Speaker             `bson:"speakers,omitempty" json:"speakers,omitempty"`
	Messages []Message             `bson:"messages,omitempty" json:"messages,omitempty"`
	Insights *ConversationInsights `bson:"insights,omitempty" json:"insights,omitempty"`

	ProcessingLog []ProcessingLogEntry `bson:"processing_log" json:"processing_log"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

type ConversationMetadata struct {
	Title            string     `bson:"title,omitempty" json:"title,omitempty"`
	DurationSeconds  float64    `bson:"duration_seconds" json:"duration_seconds"`
	Language         string     `bson:"language" json:"language"` // BCP-47, ex: "en-US"
	OriginalFilename string     `bson:"original_filename,omitempty" json:"original_filename,omitempty"`
	AudioFormat      string     `bson:"audio_format,omitempty" json:"audio_format,omitempty"`
	SampleRateHertz  int32      `bson:"sample_rate_hertz,omitempty" json:"sample_rate_hertz,omitempty"`
	RecordingDate    time.Time  `bson:"recording_date" json:"recording_date"`
	ProcessingDate   *time.Time `bson:"processing_date,omitempty" json:"processing_date,omitempty"`
	Confidence       float64    `bson:"confidence,omitempty" json:"confidence,omitempty"`
	CostInfo         *CostInfo  `bson:"cost_info,omitempty" json:"cost_info,omitempty"`
}

// CostInfo is the realized cost of a processed conversation, embedded at
// completion time. Estimates before processing live in the costing package.
type CostInfo struct {
	BilledMinutes float64  `bson:"billed_minutes" json:"billed_minutes"`
	BaseCost      float64  `bson:"base_cost" json:"base_cost"`
	TotalCost     float64  `bson:"total_cost" json:"total_cost"`
	Currency      string   `bson:"currency" json:"currency"`
	Breakdown     []string `bson:"breakdown,omitempty" json:"breakdown,omitempty"`
}

type Speaker struct {
	SpeakerID    string `bson:"speaker_id" json:"speaker_id"` // "speaker_<tag>"
	DisplayLabel string `bson:"display_label" json:"display_label"`
	AssignedName string `bson:"assigned_name,omitempty" json:"assigned_name,omitempty"`

	TotalSpeakingTime float64 `bson:"total_speaking_time" json:"total_speaking_time"` // seconds
	MessageCount      int     `bson:"message_count" json:"message_count"`
	AvgConfidence     float64 `bson:"avg_confidence" json:"avg_confidence"`
	AvgSegmentLength  float64 `bson:"avg_segment_length" json:"avg_segment_length"` // seconds
}

type Message struct {
	MessageID string  `bson:"message_id" json:"message_id"`
	SpeakerID string  `bson:"speaker_id" json:"speaker_id"`
	Text      string  `bson:"text" json:"text"`
	StartTime float64 `bson:"start_time" json:"start_time"` // seconds
	EndTime   float64 `bson:"end_time" json:"end_time"`

	Confidence float64     `bson:"confidence" json:"confidence"` // [0,1]
	Type       MessageType `bson:"type" json:"type"`
	Order      int         `bson:"order" json:"order"` // 1-based, chronological
	WordCount  int         `bson:"word_count" json:"word_count"`
}

type ConversationInsights struct {
	TotalMessages     int     `bson:"total_messages" json:"total_messages"`
	QuestionCount     int     `bson:"question_count" json:"question_count"`
	ResponseCount     int     `bson:"response_count" json:"response_count"`
	StatementCount    int     `bson:"statement_count" json:"statement_count"`
	InterruptionCount int     `bson:"interruption_count" json:"interruption_count"`
	AvgMessageWords   float64 `bson:"avg_message_words" json:"avg_message_words"`

	LongestMessageID    string `bson:"longest_message_id,omitempty" json:"longest_message_id,omitempty"`
	LongestMessageWords int    `bson:"longest_message_words" json:"longest_message_words"`

	ConversationFlow string          `bson:"conversation_flow" json:"conversation_flow"`
	SpeakingTime     []SpeakingShare `bson:"speaking_time,omitempty" json:"speaking_time,omitempty"`
}

type SpeakingShare struct {
	SpeakerID  string  `bson:"speaker_id" json:"speaker_id"`
	Seconds    float64 `bson:"seconds" json:"seconds"`
	Percentage float64 `bson:"percentage" json:"percentage"` // of total duration, 2 decimals
}

// ProcessingLogEntry is an append-only audit record. An entry is written when
// the named stage starts, except completion which marks the final persist.
type ProcessingLogEntry struct {
	Timestamp  time.Time `bson:"timestamp" json:"timestamp"`
	Stage      Stage     `bson:"stage" json:"stage"`
	Message    string    `bson:"message" json:"message"`
	DurationMS *int64    `bson:"duration_ms,omitempty" json:"duration_ms,omitempty"`
	Cost       *float64  `bson:"cost,omitempty" json:"cost,omitempty"`
	Error      string    `bson:"error,omitempty" json:"error,omitempty"`
}
