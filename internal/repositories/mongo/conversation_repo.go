package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/callscribe/callscribe/internal/models"
	"github.com/callscribe/callscribe/internal/utils"
)

type ConversationRepository interface {
	Create(ctx context.Context, rec *models.ConversationRecord) error
	GetByConversationID(ctx context.Context, conversationID string) (*models.ConversationRecord, error)
	ListByStatus(ctx context.Context, status models.ConversationStatus, limit int64) ([]models.ConversationRecord, error)

	// ClaimForProcessing atomically moves an uploaded conversation into
	// processing. Returns false when the record was not in uploaded status,
	// which is how concurrent double-starts lose the race.
	ClaimForProcessing(ctx context.Context, conversationID string) (bool, error)

	UpdateFields(ctx context.Context, conversationID string, fields bson.M) error
	SetStatus(ctx context.Context, conversationID string, status models.ConversationStatus) error
	AppendLogEntry(ctx context.Context, conversationID string, entry models.ProcessingLogEntry) error
	SetSpeakerName(ctx context.Context, conversationID, speakerID, name string) error
}

type conversationRepo struct {
	col *mongo.Collection
}

func NewConversationRepo(db *mongo.Database) ConversationRepository {
	return &conversationRepo{col: db.Collection("conversations")}
}

func (r *conversationRepo) Create(ctx context.Context, rec *models.ConversationRecord) error {
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	_, err := r.col.InsertOne(ctx, rec)
	return err
}

func (r *conversationRepo) GetByConversationID(ctx context.Context, conversationID string) (*models.ConversationRecord, error) {
	var rec models.ConversationRecord
	err := r.col.FindOne(ctx, bson.M{"conversation_id": conversationID}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &rec, err
}

func (r *conversationRepo) ListByStatus(ctx context.Context, status models.ConversationStatus, limit int64) ([]models.ConversationRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	cur, err := r.col.Find(ctx, filter,
		options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetLimit(limit).
			SetProjection(bson.M{"messages": 0}), // listings skip the heavy payload
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.ConversationRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *conversationRepo) ClaimForProcessing(ctx context.Context, conversationID string) (bool, error) {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"conversation_id": conversationID, "status": models.StatusUploaded},
		bson.M{"$set": bson.M{
			"status":     models.StatusProcessing,
			"updated_at": time.Now().UTC(),
		}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (r *conversationRepo) UpdateFields(ctx context.Context, conversationID string, fields bson.M) error {
	fields["updated_at"] = time.Now().UTC()
	_, err := r.col.UpdateOne(ctx,
		bson.M{"conversation_id": conversationID},
		bson.M{"$set": fields},
	)
	return err
}

func (r *conversationRepo) SetStatus(ctx context.Context, conversationID string, status models.ConversationStatus) error {
	return r.UpdateFields(ctx, conversationID, bson.M{"status": status})
}

func (r *conversationRepo) AppendLogEntry(ctx context.Context, conversationID string, entry models.ProcessingLogEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	_, err := r.col.UpdateOne(ctx,
		bson.M{"conversation_id": conversationID},
		bson.M{
			"$push": bson.M{"processing_log": entry},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	return err
}

func (r *conversationRepo) SetSpeakerName(ctx context.Context, conversationID, speakerID, name string) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"conversation_id": conversationID, "speakers.speaker_id": speakerID},
		bson.M{"$set": bson.M{
			"speakers.$.assigned_name": name,
			"updated_at":               time.Now().UTC(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return utils.ErrNotFound
	}
	return nil
}
