// Package poststore persists channel posts (collection channel_posts).
// Lists come back pinned first, then newest first.
package poststore

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

// Post categories.
const (
	CategoryLesson       = "lesson"
	CategoryAnnouncement = "announcement"
	CategoryHomework     = "homework"
)

var (
	// ErrNotFound is returned when no post matches.
	ErrNotFound = errors.New("post not found")

	errEmpty       = storeerr.Invalid("post title or body is required")
	errBadCategory = storeerr.Invalid(`category must be "lesson"|"announcement"|"homework"`)
)

// ValidCategory reports whether c is a known post category.
func ValidCategory(c string) bool {
	switch c {
	case CategoryLesson, CategoryAnnouncement, CategoryHomework:
		return true
	}
	return false
}

// pinOrder sorts pinned posts first, newest first within each group.
var pinOrder = bson.D{
	{Key: "pinned", Value: -1},
	{Key: "created_at", Value: -1},
	{Key: "_id", Value: -1},
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("channel_posts")}
}

// Create inserts a post.
func (s *Store) Create(ctx context.Context, p models.Post) (models.Post, error) {
	p.Title = normalize.Name(p.Title)
	p.Body = strings.TrimSpace(p.Body)
	if p.Title == "" && p.Body == "" {
		return models.Post{}, errEmpty
	}
	p.Category = normalize.Category(p.Category)
	if p.Category == "" {
		p.Category = CategoryLesson
	}
	if !ValidCategory(p.Category) {
		return models.Post{}, errBadCategory
	}
	p.ID = primitive.NewObjectID()
	p.LikedBy = []primitive.ObjectID{}
	p.SavedBy = []primitive.ObjectID{}
	p.Likes = 0
	p.Comments = 0
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Post{}, err
	}
	return p, nil
}

// GetByID loads a post.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Post, error) {
	var p models.Post
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Post{}, ErrNotFound
		}
		return models.Post{}, err
	}
	return p, nil
}

// ListByChannels returns posts of the given channels, pinned first.
func (s *Store) ListByChannels(ctx context.Context, channelIDs []primitive.ObjectID) ([]models.Post, error) {
	if len(channelIDs) == 0 {
		return []models.Post{}, nil
	}
	return s.find(ctx, bson.M{"channel_id": bson.M{"$in": channelIDs}})
}

// ListSaved returns the posts userID bookmarked.
func (s *Store) ListSaved(ctx context.Context, userID primitive.ObjectID) ([]models.Post, error) {
	return s.find(ctx, bson.M{"saved_by": userID})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Post, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(pinOrder))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Post{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update holds the editable fields.
type Update struct {
	Title    string
	Body     string
	Category string
}

// UpdateContent rewrites title, body and category.
func (s *Store) UpdateContent(ctx context.Context, id primitive.ObjectID, upd Update) error {
	title := normalize.Name(upd.Title)
	body := strings.TrimSpace(upd.Body)
	if title == "" && body == "" {
		return errEmpty
	}
	cat := normalize.Category(upd.Category)
	if !ValidCategory(cat) {
		return errBadCategory
	}
	return s.set(ctx, id, bson.M{"title": title, "body": body, "category": cat})
}

// SetPinned pins or unpins a post.
func (s *Store) SetPinned(ctx context.Context, id primitive.ObjectID, pinned bool) error {
	return s.set(ctx, id, bson.M{"pinned": pinned})
}

func (s *Store) set(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	fields["updated_at"] = time.Now().UTC()
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ToggleLike flips userID's like on a post and returns the new state and
// like count.
func (s *Store) ToggleLike(ctx context.Context, id, userID primitive.ObjectID) (bool, int, error) {
	p, on, err := s.toggle(ctx, id, userID, "liked_by", "likes")
	if err != nil {
		return false, 0, err
	}
	return on, p.Likes, nil
}

// ToggleSave flips userID's bookmark on a post and returns the new state.
func (s *Store) ToggleSave(ctx context.Context, id, userID primitive.ObjectID) (bool, error) {
	_, on, err := s.toggle(ctx, id, userID, "saved_by", "")
	return on, err
}

// toggle adds userID to the set field when absent, otherwise removes it.
// counter, when set, tracks the set's size.
func (s *Store) toggle(ctx context.Context, id, userID primitive.ObjectID, field, counter string) (models.Post, bool, error) {
	after := options.FindOneAndUpdate().SetReturnDocument(options.After)

	add := bson.M{"$addToSet": bson.M{field: userID}}
	if counter != "" {
		add["$inc"] = bson.M{counter: 1}
	}
	var p models.Post
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id, field: bson.M{"$ne": userID}}, add, after).Decode(&p)
	if err == nil {
		return p, true, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Post{}, false, err
	}

	remove := bson.M{"$pull": bson.M{field: userID}}
	if counter != "" {
		remove["$inc"] = bson.M{counter: -1}
	}
	err = s.c.FindOneAndUpdate(ctx, bson.M{"_id": id, field: userID}, remove, after).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Post{}, false, ErrNotFound
		}
		return models.Post{}, false, err
	}
	return p, false, nil
}

// AddComments adjusts the cached comment count by delta.
func (s *Store) AddComments(ctx context.Context, id primitive.ObjectID, delta int) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$inc": bson.M{"comments": delta}})
	return err
}

// CountByChannel counts a channel's posts.
func (s *Store) CountByChannel(ctx context.Context, channelID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"channel_id": channelID})
}

// Delete removes a post. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
