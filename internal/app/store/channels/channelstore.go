package channelstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/channelhub/internal/app/system/normalize"
	"github.com/dalemusser/channelhub/internal/app/system/status"
	"github.com/dalemusser/channelhub/internal/app/system/storeerr"
	"github.com/dalemusser/channelhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicate is returned when a teacher already owns a channel.
	ErrDuplicate = errors.New("this teacher already has a channel")
	// ErrNotFound is returned when no channel matches.
	ErrNotFound = errors.New("channel not found")

	errNoName = storeerr.Invalid("channel name is required")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("channels")}
}

// Create inserts a channel. Each teacher owns at most one.
func (s *Store) Create(ctx context.Context, ch models.Channel) (models.Channel, error) {
	ch.Name = normalize.Name(ch.Name)
	if ch.Name == "" {
		return models.Channel{}, errNoName
	}
	ch.ID = primitive.NewObjectID()
	ch.NameCI = text.Fold(ch.Name)
	ch.Subject = normalize.Name(ch.Subject)
	ch.Description = strings.TrimSpace(ch.Description)
	if ch.Status == "" {
		ch.Status = status.Active
	}
	now := time.Now().UTC()
	ch.CreatedAt = now
	ch.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, ch); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Channel{}, ErrDuplicate
		}
		return models.Channel{}, err
	}
	return ch, nil
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.Channel, error) {
	var ch models.Channel
	if err := s.c.FindOne(ctx, filter).Decode(&ch); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Channel{}, ErrNotFound
		}
		return models.Channel{}, err
	}
	return ch, nil
}

// GetByID loads a channel.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Channel, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByTeacher loads the channel owned by teacherID.
func (s *Store) GetByTeacher(ctx context.Context, teacherID primitive.ObjectID) (models.Channel, error) {
	return s.findOne(ctx, bson.M{"teacher_id": teacherID})
}

// ListByIDs returns the given channels ordered by name.
func (s *Store) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Channel, error) {
	if len(ids) == 0 {
		return []models.Channel{}, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// ListActive returns active channels in a workspace ordered by name. A
// zero workspaceID lists every workspace.
func (s *Store) ListActive(ctx context.Context, workspaceID primitive.ObjectID) ([]models.Channel, error) {
	filter := bson.M{"status": status.Active}
	if !workspaceID.IsZero() {
		filter["workspace_id"] = workspaceID
	}
	return s.find(ctx, filter)
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Channel, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Channel{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update holds the teacher-editable fields.
type Update struct {
	Name        string
	Subject     string
	Description string
}

// UpdateDetails rewrites the editable fields.
func (s *Store) UpdateDetails(ctx context.Context, id primitive.ObjectID, upd Update) error {
	name := normalize.Name(upd.Name)
	if name == "" {
		return errNoName
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"name":        name,
		"name_ci":     text.Fold(name),
		"subject":     normalize.Name(upd.Subject),
		"description": strings.TrimSpace(upd.Description),
		"updated_at":  time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Count counts channels in a workspace; zero counts all.
func (s *Store) Count(ctx context.Context, workspaceID primitive.ObjectID) (int64, error) {
	filter := bson.M{}
	if !workspaceID.IsZero() {
		filter["workspace_id"] = workspaceID
	}
	return s.c.CountDocuments(ctx, filter)
}

// Delete removes a channel. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
