// Package notestore persists markdown lesson notes (collection lesson_notes).
package notestore

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
	// ErrNotFound is returned when no note matches.
	ErrNotFound = errors.New("note not found")

	errEmpty = storeerr.Invalid("note title and body are required")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("lesson_notes")}
}

// Create inserts a note.
func (s *Store) Create(ctx context.Context, n models.LessonNote) (models.LessonNote, error) {
	n.Title = normalize.Name(n.Title)
	n.Body = strings.TrimSpace(n.Body)
	if n.Title == "" || n.Body == "" {
		return models.LessonNote{}, errEmpty
	}
	n.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	n.CreatedAt = now
	n.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, n); err != nil {
		return models.LessonNote{}, err
	}
	return n, nil
}

// GetByID loads a note.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.LessonNote, error) {
	var n models.LessonNote
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&n); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.LessonNote{}, ErrNotFound
		}
		return models.LessonNote{}, err
	}
	return n, nil
}

// ListByChannels returns notes of the given channels newest first.
func (s *Store) ListByChannels(ctx context.Context, channelIDs []primitive.ObjectID) ([]models.LessonNote, error) {
	if len(channelIDs) == 0 {
		return []models.LessonNote{}, nil
	}
	return s.find(ctx, bson.M{"channel_id": bson.M{"$in": channelIDs}})
}

// ListByVideo returns the notes attached to a video.
func (s *Store) ListByVideo(ctx context.Context, videoID primitive.ObjectID) ([]models.LessonNote, error) {
	return s.find(ctx, bson.M{"video_id": videoID})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.LessonNote, error) {
	cur, err := s.c.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.LessonNote{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateContent rewrites a note's title and body.
func (s *Store) UpdateContent(ctx context.Context, id primitive.ObjectID, title, body string) error {
	title = normalize.Name(title)
	body = strings.TrimSpace(body)
	if title == "" || body == "" {
		return errEmpty
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"title":      title,
		"body":       body,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a note. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
