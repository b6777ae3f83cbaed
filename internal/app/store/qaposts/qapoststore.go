// Package qapoststore persists channel questions and their answers
// (collection qa_posts).
package qapoststore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/channelhub/internal/app/system/normalize"
	"github.com/dalemusser/channelhub/internal/app/system/storeerr"
	"github.com/dalemusser/channelhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no question matches.
	ErrNotFound = errors.New("question not found")

	errEmpty = storeerr.Invalid("text is required")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("qa_posts")}
}

// Ask inserts an unanswered question.
func (s *Store) Ask(ctx context.Context, q models.QAPost) (models.QAPost, error) {
	q.Question = strings.TrimSpace(q.Question)
	if q.Question == "" {
		return models.QAPost{}, errEmpty
	}
	q.ID = primitive.NewObjectID()
	q.Topic = normalize.Category(q.Topic)
	q.Answers = []models.Answer{}
	q.Resolved = false
	now := time.Now().UTC()
	q.CreatedAt = now
	q.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, q); err != nil {
		return models.QAPost{}, err
	}
	return q, nil
}

// GetByID loads a question with its answers.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.QAPost, error) {
	var q models.QAPost
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&q); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.QAPost{}, ErrNotFound
		}
		return models.QAPost{}, err
	}
	return q, nil
}

// ListByChannels returns questions of the given channels newest first.
func (s *Store) ListByChannels(ctx context.Context, channelIDs []primitive.ObjectID) ([]models.QAPost, error) {
	if len(channelIDs) == 0 {
		return []models.QAPost{}, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"channel_id": bson.M{"$in": channelIDs}},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.QAPost{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Answer appends an answer and marks the question resolved.
func (s *Store) Answer(ctx context.Context, id primitive.ObjectID, a models.Answer) (models.QAPost, error) {
	a.Body = strings.TrimSpace(a.Body)
	if a.Body == "" {
		return models.QAPost{}, errEmpty
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	var q models.QAPost
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id},
		bson.M{
			"$push": bson.M{"answers": a},
			"$set":  bson.M{"resolved": true, "updated_at": now},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&q)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.QAPost{}, ErrNotFound
		}
		return models.QAPost{}, err
	}
	return q, nil
}

// SetResolved marks a question open or resolved.
func (s *Store) SetResolved(ctx context.Context, id primitive.ObjectID, resolved bool) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"resolved": resolved, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CountOpen counts unresolved questions in a channel.
func (s *Store) CountOpen(ctx context.Context, channelID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"channel_id": channelID, "resolved": false})
}

// Delete removes a question. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
