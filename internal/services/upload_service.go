package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/callscribe/callscribe/internal/audio"
	"github.com/callscribe/callscribe/internal/models"
	mongorepo "github.com/callscribe/callscribe/internal/repositories/mongo"
	"github.com/callscribe/callscribe/internal/storage"
	"github.com/callscribe/callscribe/internal/utils"
)

type UploadService interface {
	// Upload validates the audio, stores it, and creates the conversation
	// record in uploaded status. Processing is a separate, explicit start.
	Upload(ctx context.Context, in UploadInput) (*models.ConversationRecord, error)
}

type UploadInput struct {
	UserID      string
	Filename    string
	ContentType string
	Title       string
	Language    string
	RecordingID string
	Reader      io.Reader
}

type uploadService struct {
	convos mongorepo.ConversationRepository
	store  storage.Store
	log    *logrus.Logger
}

func NewUploadService(convos mongorepo.ConversationRepository, store storage.Store, log *logrus.Logger) UploadService {
	if log == nil {
		log = logrus.New()
	}
	return &uploadService{convos: convos, store: store, log: log}
}

func (s *uploadService) Upload(ctx context.Context, in UploadInput) (*models.ConversationRecord, error) {
	const op = "UploadService.Upload"

	if in.Filename == "" || in.Reader == nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, "filename and audio body are required", nil)
	}

	data, err := io.ReadAll(io.LimitReader(in.Reader, audio.MaxUploadBytes+1))
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to read audio body", err)
	}

	info, err := audio.Probe(in.Filename, data)
	if err != nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, "audio validation failed", err)
	}

	conversationID := uuid.NewString()
	objectName := "conversations/" + conversationID + strings.ToLower(filepath.Ext(in.Filename))

	// object-store writes see transient failures; retry with backoff before
	// giving up on the upload
	var locationRef string
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second
	err = backoff.Retry(func() error {
		ref, uerr := s.store.Upload(ctx, objectName, in.ContentType, bytes.NewReader(data))
		if uerr != nil {
			return uerr
		}
		locationRef = ref
		return nil
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to store audio", err)
	}

	language := in.Language
	if language == "" {
		language = "en-US"
	}
	title := in.Title
	if title == "" {
		title = in.Filename
	}

	now := time.Now().UTC()
	rec := &models.ConversationRecord{
		ConversationID: conversationID,
		RecordingID:    in.RecordingID,
		UserID:         in.UserID,
		Status:         models.StatusUploaded,
		AudioURI:       locationRef,
		Metadata: models.ConversationMetadata{
			Title:            title,
			DurationSeconds:  info.DurationSeconds,
			Language:         language,
			OriginalFilename: in.Filename,
			AudioFormat:      info.Format,
			SampleRateHertz:  info.SampleRateHertz,
			RecordingDate:    now,
		},
		ProcessingLog: []models.ProcessingLogEntry{
			{Timestamp: now, Stage: models.StageUpload, Message: "audio uploaded"},
			{Timestamp: now, Stage: models.StageValidation, Message: fmt.Sprintf(
				"audio validated: format=%s sample_rate=%d duration=%.1fs",
				info.Format, info.SampleRateHertz, info.DurationSeconds)},
		},
	}

	if err := s.convos.Create(ctx, rec); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create conversation record", err)
	}

	s.log.WithFields(logrus.Fields{
		"conversation_id": conversationID,
		"format":          info.Format,
		"duration_s":      info.DurationSeconds,
	}).Info("conversation uploaded")
	return rec, nil
}
