package jobstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/channelhub/internal/app/system/normalize"
	"github.com/dalemusser/channelhub/internal/app/system/status"
	"github.com/dalemusser/channelhub/internal/app/system/storeerr"
	"github.com/dalemusser/channelhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no job matches.
	ErrNotFound = errors.New("job not found")
	// ErrNotOpen is returned when assigning a job that is already taken or closed.
	ErrNotOpen = errors.New("job is not open")
	// ErrStatusChanged is returned by Move when the job left the expected status.
	ErrStatusChanged = errors.New("job status changed; reload and try again")

	errNoTitle   = storeerr.Invalid("job title is required")
	errBadStatus = storeerr.Invalid(`status must be "open"|"assigned"|"done"|"closed"`)
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("jobs")}
}

// Create inserts an open job.
func (s *Store) Create(ctx context.Context, j models.Job) (models.Job, error) {
	j.Title = normalize.Name(j.Title)
	if j.Title == "" {
		return models.Job{}, errNoTitle
	}
	j.ID = primitive.NewObjectID()
	j.TitleCI = text.Fold(j.Title)
	j.Category = normalize.Category(j.Category)
	j.Description = strings.TrimSpace(j.Description)
	j.Status = status.Open
	j.AssignedTo = nil
	now := time.Now().UTC()
	j.CreatedAt = now
	j.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, j); err != nil {
		return models.Job{}, err
	}
	return j, nil
}

// GetByID loads a job.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Job, error) {
	var j models.Job
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&j); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Job{}, ErrNotFound
		}
		return models.Job{}, err
	}
	return j, nil
}

// ListFilter narrows List and Count. Zero values match everything.
type ListFilter struct {
	WorkspaceID primitive.ObjectID
	Status      string
	AssignedTo  primitive.ObjectID
	// OpenOrAssignedTo lists open jobs plus those held by this agent.
	OpenOrAssignedTo primitive.ObjectID
}

func (f ListFilter) bson() bson.M {
	m := bson.M{}
	if !f.WorkspaceID.IsZero() {
		m["workspace_id"] = f.WorkspaceID
	}
	if f.Status != "" {
		m["status"] = f.Status
	}
	if !f.AssignedTo.IsZero() {
		m["assigned_to"] = f.AssignedTo
	}
	if !f.OpenOrAssignedTo.IsZero() {
		m["$or"] = bson.A{
			bson.M{"status": status.Open},
			bson.M{"assigned_to": f.OpenOrAssignedTo},
		}
	}
	return m
}

// List returns jobs newest first.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.Job, error) {
	cur, err := s.c.Find(ctx, f.bson(), options.Find().SetSort(bson.D{
		{Key: "created_at", Value: -1},
		{Key: "_id", Value: -1},
	}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Job{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count counts jobs matching f.
func (s *Store) Count(ctx context.Context, f ListFilter) (int64, error) {
	return s.c.CountDocuments(ctx, f.bson())
}

// Update holds the editable fields.
type Update struct {
	Title       string
	Description string
	Category    string
	Reward      models.Money
}

// UpdateDetails rewrites the editable fields.
func (s *Store) UpdateDetails(ctx context.Context, id primitive.ObjectID, upd Update) error {
	title := normalize.Name(upd.Title)
	if title == "" {
		return errNoTitle
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"title":       title,
		"title_ci":    text.Fold(title),
		"description": strings.TrimSpace(upd.Description),
		"category":    normalize.Category(upd.Category),
		"reward":      upd.Reward,
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

// Assign gives an open job to agentID.
func (s *Store) Assign(ctx context.Context, id, agentID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": status.Open},
		bson.M{"$set": bson.M{
			"status":      status.Assigned,
			"assigned_to": agentID,
			"updated_at":  time.Now().UTC(),
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if _, err := s.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrNotOpen
	}
	return nil
}

// SetStatus sets any job status. Reopening clears the assignee.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, st string) error {
	st = normalize.Status(st)
	switch st {
	case status.Open, status.Assigned, status.Done, status.Closed:
	default:
		return errBadStatus
	}
	upd := bson.M{"$set": bson.M{"status": st, "updated_at": time.Now().UTC()}}
	if st == status.Open {
		upd["$unset"] = bson.M{"assigned_to": ""}
	}
	res, err := s.c.UpdateByID(ctx, id, upd)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Move changes the status from one value to another, failing with
// ErrStatusChanged if the job is no longer in from.
func (s *Store) Move(ctx context.Context, id primitive.ObjectID, from, to string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if _, err := s.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrStatusChanged
	}
	return nil
}

// Delete removes a job. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
