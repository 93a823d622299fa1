package services

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/callscribe/callscribe/internal/models"
	"github.com/callscribe/callscribe/internal/utils"
)

type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	// failures is the number of Upload calls to fail before succeeding
	failures int
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (s *fakeStore) Upload(_ context.Context, objectName, _ string, r io.Reader) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return "", errors.New("transient store error")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.objects[objectName] = data
	return "gs://test-bucket/" + objectName, nil
}

func (s *fakeStore) SignedGetURL(context.Context, string, time.Duration) (string, error) {
	return "", nil
}

func (s *fakeStore) Close() error { return nil }

func testWAV(seconds int) []byte {
	sampleRate := uint32(16000)
	byteRate := sampleRate * 2 // mono 16-bit
	dataSize := int(byteRate) * seconds

	b := make([]byte, 0, 44+dataSize)
	b = append(b, []byte("RIFF")...)
	b = binary.LittleEndian.AppendUint32(b, uint32(36+dataSize))
	b = append(b, []byte("WAVE")...)
	b = append(b, []byte("fmt ")...)
	b = binary.LittleEndian.AppendUint32(b, 16)
	b = binary.LittleEndian.AppendUint16(b, 1)
	b = binary.LittleEndian.AppendUint16(b, 1)
	b = binary.LittleEndian.AppendUint32(b, sampleRate)
	b = binary.LittleEndian.AppendUint32(b, byteRate)
	b = binary.LittleEndian.AppendUint16(b, 2)
	b = binary.LittleEndian.AppendUint16(b, 16)
	b = append(b, []byte("data")...)
	b = binary.LittleEndian.AppendUint32(b, uint32(dataSize))
	b = append(b, make([]byte, dataSize)...)
	return b
}

func TestUploadCreatesRecord(t *testing.T) {
	repo := newFakeConversationRepo()
	store := newFakeStore()
	svc := NewUploadService(repo, store, quietLogger())

	rec, err := svc.Upload(context.Background(), UploadInput{
		UserID:   "user-1",
		Filename: "standup.wav",
		Title:    "Monday standup",
		Reader:   bytes.NewReader(testWAV(3)),
	})
	if err != nil {
		t.Fatal(err)
	}

	if rec.ConversationID == "" {
		t.Fatal("no conversation id assigned")
	}
	if rec.Status != models.StatusUploaded {
		t.Fatalf("status = %s", rec.Status)
	}
	if !strings.HasPrefix(rec.AudioURI, "gs://test-bucket/conversations/") {
		t.Fatalf("audio uri = %q", rec.AudioURI)
	}
	if rec.Metadata.Title != "Monday standup" || rec.Metadata.Language != "en-US" {
		t.Fatalf("metadata = %+v", rec.Metadata)
	}
	if rec.Metadata.DurationSeconds != 3 {
		t.Fatalf("duration = %v, want 3", rec.Metadata.DurationSeconds)
	}

	// log opens with upload then validation
	if len(rec.ProcessingLog) != 2 ||
		rec.ProcessingLog[0].Stage != models.StageUpload ||
		rec.ProcessingLog[1].Stage != models.StageValidation {
		t.Fatalf("processing log = %+v", rec.ProcessingLog)
	}

	stored, err := repo.GetByConversationID(context.Background(), rec.ConversationID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != models.StatusUploaded {
		t.Fatalf("persisted status = %s", stored.Status)
	}
}

func TestUploadRetriesTransientStoreFailure(t *testing.T) {
	repo := newFakeConversationRepo()
	store := newFakeStore()
	store.failures = 2
	svc := NewUploadService(repo, store, quietLogger())

	rec, err := svc.Upload(context.Background(), UploadInput{
		Filename: "call.wav",
		Reader:   bytes.NewReader(testWAV(1)),
	})
	if err != nil {
		t.Fatalf("upload should survive transient failures: %v", err)
	}
	if rec.AudioURI == "" {
		t.Fatal("no audio uri after retry")
	}
}

func TestUploadRejectsUnsupportedFormat(t *testing.T) {
	svc := NewUploadService(newFakeConversationRepo(), newFakeStore(), quietLogger())

	_, err := svc.Upload(context.Background(), UploadInput{
		Filename: "notes.txt",
		Reader:   strings.NewReader("not audio"),
	})
	var ae *utils.AppError
	if !errors.As(err, &ae) || ae.Code != utils.CodeInvalidArgument {
		t.Fatalf("err = %v, want invalid argument", err)
	}
}

func TestUploadRejectsMissingInput(t *testing.T) {
	svc := NewUploadService(newFakeConversationRepo(), newFakeStore(), quietLogger())
	_, err := svc.Upload(context.Background(), UploadInput{})
	var ae *utils.AppError
	if !errors.As(err, &ae) || ae.Code != utils.CodeInvalidArgument {
		t.Fatalf("err = %v, want invalid argument", err)
	}
}

func TestUploadDefaultsTitleToFilename(t *testing.T) {
	svc := NewUploadService(newFakeConversationRepo(), newFakeStore(), quietLogger())
	rec, err := svc.Upload(context.Background(), UploadInput{
		Filename: "call.wav",
		Reader:   bytes.NewReader(testWAV(1)),
	})
	if err != nil {
		t.Fatal(err)
	}
	if rec.Metadata.Title != "call.wav" {
		t.Fatalf("title = %q", rec.Metadata.Title)
	}
}
