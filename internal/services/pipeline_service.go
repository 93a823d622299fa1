package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/callscribe/callscribe/internal/cache"
	"github.com/callscribe/callscribe/internal/conversation"
	"github.com/callscribe/callscribe/internal/costing"
	"github.com/callscribe/callscribe/internal/diarization"
	"github.com/callscribe/callscribe/internal/insights"
	"github.com/callscribe/callscribe/internal/models"
	"github.com/callscribe/callscribe/internal/providers/stt"
	mongorepo "github.com/callscribe/callscribe/internal/repositories/mongo"
	pgrepo "github.com/callscribe/callscribe/internal/repositories/postgres"
	"github.com/callscribe/callscribe/internal/utils"
)

// ProcessStream is the redis stream fire-and-forget runs are enqueued to.
const ProcessStream = "conversations:process"

// ErrAudioNotFound means the record exists but has no resolvable audio
// location. Fatal; no stage is attempted.
var ErrAudioNotFound = errors.New("audio not found for conversation")

// processingTimeMultiplier scales audio duration into an expected total
// processing time for the remaining-time estimate.
const processingTimeMultiplier = 0.6

// progressByStage maps the highest logged stage to a completion percentage.
var progressByStage = map[models.Stage]int{
	models.StageUpload:        5,
	models.StageValidation:    10,
	models.StageDiarization:   25,
	models.StageTranscription: 50,
	models.StageParsing:       70,
	models.StageInsights:      85,
	models.StageCompletion:    100,
}

type Progress struct {
	ConversationID     string                    `json:"conversation_id"`
	Status             models.ConversationStatus `json:"status"`
	Stage              models.Stage              `json:"stage"`
	Percentage         int                       `json:"percentage"`
	Message            string                    `json:"message"`
	EstimatedRemaining float64                   `json:"estimated_remaining_seconds"`
	EstimatedCost      float64                   `json:"estimated_cost"`
}

type PipelineService interface {
	// Process runs the whole pipeline synchronously. Starting a conversation
	// that is not in uploaded status is a no-op, not an error.
	Process(ctx context.Context, conversationID string) error

	// Enqueue hands the run to the worker pool via the redis stream and
	// returns immediately.
	Enqueue(ctx context.Context, conversationID string) error

	Progress(ctx context.Context, conversationID string) (*Progress, error)
}

type PipelineDeps struct {
	Conversations mongorepo.ConversationRepository
	Usage         pgrepo.UsageRepository
	Recognizer    stt.Provider
	Monitor       *costing.Monitor
	Cache         cache.Cache   // optional, short-TTL progress cache
	Redis         *redis.Client // optional, enqueue + progress events
	Logger        *logrus.Logger
	Tier          costing.Tier
}

type pipelineService struct {
	deps PipelineDeps
}

func NewPipelineService(deps PipelineDeps) PipelineService {
	if deps.Logger == nil {
		deps.Logger = logrus.New()
	}
	if deps.Tier == "" {
		deps.Tier = costing.TierBalanced
	}
	return &pipelineService{deps: deps}
}

func (s *pipelineService) Enqueue(ctx context.Context, conversationID string) error {
	const op = "PipelineService.Enqueue"

	if conversationID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "conversation_id is required", nil)
	}
	if s.deps.Redis == nil {
		return utils.E(utils.CodeUnavailable, op, "task queue is not configured", nil)
	}
	if _, err := s.deps.Conversations.GetByConversationID(ctx, conversationID); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "conversation not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to load conversation", err)
	}

	err := s.deps.Redis.XAdd(ctx, &redis.XAddArgs{
		Stream: ProcessStream,
		Values: map[string]any{
			"conversation_id": conversationID,
			"enqueued_at":     time.Now().UTC().Format(time.RFC3339),
		},
	}).Err()
	if err != nil {
		return utils.E(utils.CodeUnavailable, op, "failed to enqueue conversation", err)
	}
	return nil
}

func (s *pipelineService) Process(ctx context.Context, conversationID string) error {
	const op = "PipelineService.Process"

	rec, err := s.deps.Conversations.GetByConversationID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "conversation not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to load conversation", err)
	}

	log := s.deps.Logger.WithFields(logrus.Fields{
		"conversation_id": conversationID,
		"tier":            s.deps.Tier,
	})

	// The claim is the only double-processing guard: a compare-and-swap on
	// status, so two concurrent starts cannot both win.
	claimed, err := s.deps.Conversations.ClaimForProcessing(ctx, conversationID)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to claim conversation", err)
	}
	if !claimed {
		log.WithField("status", rec.Status).Info("conversation not in uploaded status, skipping")
		return nil
	}

	if err := s.run(ctx, rec, log); err != nil {
		s.appendLog(ctx, conversationID, models.ProcessingLogEntry{
			Stage:   models.StageError,
			Message: "processing failed",
			Error:   err.Error(),
		})
		if serr := s.deps.Conversations.SetStatus(ctx, conversationID, models.StatusFailed); serr != nil {
			log.WithError(serr).Error("failed to persist failed status")
		}
		s.publishEvent(ctx, conversationID, models.StageError, models.StatusFailed, err.Error())
		log.WithError(err).Error("pipeline run failed")
		return err
	}
	return nil
}

// run drives the stage sequence. Log entries name the unit of work about to
// start, so the progress query reports the stage currently running. Any error
// returned here is mapped to failed status by the single boundary in Process.
func (s *pipelineService) run(ctx context.Context, rec *models.ConversationRecord, log *logrus.Entry) error {
	const op = "PipelineService.run"
	id := rec.ConversationID

	s.appendLog(ctx, id, models.ProcessingLogEntry{
		Stage:   models.StageDiarization,
		Message: "starting speech recognition",
	})
	s.publishEvent(ctx, id, models.StageDiarization, models.StatusProcessing, "starting speech recognition")

	if rec.AudioURI == "" {
		return utils.E(utils.CodeNotFound, op, "audio location not found", ErrAudioNotFound)
	}

	cfg := costing.Resolve(s.deps.Tier, nil)
	monthlyUsage := s.deps.Monitor.MonthlyUsageMinutes()

	recStart := time.Now()
	result, err := s.deps.Recognizer.Recognize(ctx, stt.Request{
		AudioURI:        rec.AudioURI,
		Filename:        rec.Metadata.OriginalFilename,
		LanguageCode:    rec.Metadata.Language,
		SampleRateHertz: rec.Metadata.SampleRateHertz,
		Config:          cfg,
	})
	if err != nil {
		switch {
		case errors.Is(err, stt.ErrNoSpeechDetected):
			return utils.E(utils.CodeUnprocessable, op, "no speech detected", err)
		case errors.Is(err, stt.ErrProviderUnavailable):
			return utils.E(utils.CodeUnavailable, op, "recognition provider unavailable", err)
		default:
			return utils.E(utils.CodeInternal, op, "recognition failed", err)
		}
	}

	realized := stt.RealizedEstimate(result, cfg, monthlyUsage)
	recMS := time.Since(recStart).Milliseconds()
	s.appendLog(ctx, id, models.ProcessingLogEntry{
		Stage:      models.StageTranscription,
		Message:    fmt.Sprintf("recognition complete: %.1f billed minutes", result.BilledSeconds/60),
		DurationMS: &recMS,
		Cost:       &realized.TotalCost,
	})
	s.publishEvent(ctx, id, models.StageTranscription, models.StatusProcessing, "processing transcript")

	segmented, err := diarization.Segment(result)
	if err != nil {
		if errors.Is(err, diarization.ErrNoSpeakerSegments) {
			return utils.E(utils.CodeUnprocessable, op, "no speaker segments found", err)
		}
		return utils.E(utils.CodeInternal, op, "segmentation failed", err)
	}

	s.appendLog(ctx, id, models.ProcessingLogEntry{
		Stage:   models.StageParsing,
		Message: "structuring conversation",
	})
	s.publishEvent(ctx, id, models.StageParsing, models.StatusProcessing, "structuring conversation")

	speakers, messages := conversation.Structure(segmented)

	s.appendLog(ctx, id, models.ProcessingLogEntry{
		Stage:   models.StageInsights,
		Message: "generating insights",
	})
	s.publishEvent(ctx, id, models.StageInsights, models.StatusProcessing, "generating insights")

	ins := insights.Generate(speakers, messages, segmented.TotalDuration)

	confidence := 0.0
	for _, m := range messages {
		confidence += m.Confidence
	}
	if len(messages) > 0 {
		confidence /= float64(len(messages))
	}

	now := time.Now().UTC()
	costInfo := &models.CostInfo{
		BilledMinutes: realized.DurationMinutes,
		BaseCost:      realized.BaseCost,
		TotalCost:     realized.TotalCost,
		Currency:      realized.Currency,
		Breakdown:     realized.Breakdown,
	}
	fields := bson.M{
		"speakers":                 speakers,
		"messages":                 messages,
		"insights":                 ins,
		"metadata.confidence":      confidence,
		"metadata.processing_date": now,
		"metadata.cost_info":       costInfo,
		"status":                   models.StatusCompleted,
	}
	if rec.Metadata.DurationSeconds == 0 && segmented.TotalDuration > 0 {
		fields["metadata.duration_seconds"] = segmented.TotalDuration
	}
	err = s.deps.Conversations.UpdateFields(ctx, id, fields)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to persist results", err)
	}

	s.recordUsage(ctx, rec, realized, log)

	s.appendLog(ctx, id, models.ProcessingLogEntry{
		Stage: models.StageCompletion,
		Message: fmt.Sprintf("processing complete: %d speakers, %d messages, cost $%.4f",
			len(speakers), len(messages), realized.TotalCost),
		Cost: &realized.TotalCost,
	})
	s.publishEvent(ctx, id, models.StageCompletion, models.StatusCompleted, "processing complete")

	log.WithFields(logrus.Fields{
		"speakers":       len(speakers),
		"messages":       len(messages),
		"billed_minutes": realized.DurationMinutes,
		"cost":           realized.TotalCost,
	}).Info("conversation processed")
	return nil
}

func (s *pipelineService) recordUsage(ctx context.Context, rec *models.ConversationRecord, realized costing.Estimate, log *logrus.Entry) {
	s.deps.Monitor.Record(realized.DurationMinutes, realized.TotalCost)

	limits := s.deps.Monitor.CheckLimits()
	for _, w := range limits.Warnings {
		log.Warn(w)
	}
	for _, d := range s.deps.Monitor.RecommendDowngrades(s.deps.Tier) {
		log.WithField("recommendation", d).Warn("cost downgrade recommended")
	}

	if s.deps.Usage == nil {
		return
	}
	breakdown, _ := json.Marshal(realized)
	err := s.deps.Usage.Insert(ctx, &models.UsageRecord{
		ID:             uuid.NewString(),
		ConversationID: rec.ConversationID,
		MonthKey:       costing.MonthKey(time.Now()),
		Tier:           string(s.deps.Tier),
		BilledMinutes:  realized.DurationMinutes,
		Cost:           realized.TotalCost,
		Breakdown:      breakdown,
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		// the ledger is advisory; a failed insert must not fail the run
		log.WithError(err).Error("failed to persist usage record")
	}
}

func (s *pipelineService) Progress(ctx context.Context, conversationID string) (*Progress, error) {
	const op = "PipelineService.Progress"

	cacheKey := "progress:" + conversationID
	if s.deps.Cache != nil {
		var cached Progress
		if hit, _ := s.deps.Cache.GetJSON(ctx, cacheKey, &cached); hit {
			return &cached, nil
		}
	}

	rec, err := s.deps.Conversations.GetByConversationID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "conversation not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load conversation", err)
	}

	p := &Progress{ConversationID: conversationID, Status: rec.Status}

	for _, e := range rec.ProcessingLog {
		if pct, ok := progressByStage[e.Stage]; ok && pct >= p.Percentage {
			p.Percentage = pct
			p.Stage = e.Stage
		}
	}
	if n := len(rec.ProcessingLog); n > 0 {
		last := rec.ProcessingLog[n-1]
		p.Message = last.Message
		if last.Stage == models.StageError {
			p.Stage = models.StageError
			if last.Error != "" {
				p.Message = last.Error
			}
		}
	}

	switch rec.Status {
	case models.StatusCompleted:
		p.Percentage = 100
		p.Stage = models.StageCompletion
	case models.StatusFailed:
		// keep the percentage reached; the error entry carries the detail
	default:
		p.EstimatedRemaining = rec.Metadata.DurationSeconds * processingTimeMultiplier *
			(1 - float64(p.Percentage)/100)
	}

	if ci := rec.Metadata.CostInfo; ci != nil {
		p.EstimatedCost = ci.TotalCost
	} else {
		cfg := costing.Resolve(s.deps.Tier, nil)
		est := costing.EstimateCost(rec.Metadata.DurationSeconds/60, cfg, s.deps.Monitor.MonthlyUsageMinutes())
		p.EstimatedCost = est.TotalCost
	}

	if s.deps.Cache != nil {
		_ = s.deps.Cache.SetJSON(ctx, cacheKey, p, 2*time.Second)
	}
	return p, nil
}

func (s *pipelineService) appendLog(ctx context.Context, conversationID string, entry models.ProcessingLogEntry) {
	entry.Timestamp = time.Now().UTC()
	if err := s.deps.Conversations.AppendLogEntry(ctx, conversationID, entry); err != nil {
		s.deps.Logger.WithError(err).WithField("conversation_id", conversationID).
			Error("failed to append processing log entry")
	}
}

// publishEvent pushes a progress event to the conversation's redis channel for
// WebSocket subscribers. Best effort; processing never blocks on delivery.
func (s *pipelineService) publishEvent(ctx context.Context, conversationID string, stage models.Stage, status models.ConversationStatus, message string) {
	if s.deps.Redis == nil {
		return
	}
	payload, _ := json.Marshal(map[string]any{
		"type":            "status",
		"conversation_id": conversationID,
		"stage":           stage,
		"status":          status,
		"message":         message,
		"percentage":      progressByStage[stage],
	})
	_ = s.deps.Redis.Publish(ctx, EventChannel(conversationID), string(payload)).Err()
}

// EventChannel names the pub/sub channel carrying a conversation's progress
// events.
func EventChannel(conversationID string) string {
	return "conversation:" + conversationID + ":events"
}
