// Package orderstore persists data bundle orders (collection data_orders).
package orderstore

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
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicateReference is returned when a reference is reused.
	ErrDuplicateReference = errors.New("an order with this reference already exists")
	// ErrNotFound is returned when no order matches.
	ErrNotFound = errors.New("order not found")
	// ErrBadTransition is returned for a status change the order cannot make.
	ErrBadTransition = errors.New("order cannot move to that status")

	errBadAmount = storeerr.Invalid("order amount must be positive")
)

// next lists the statuses each status may move to.
var next = map[string][]string{
	status.Pending:    {status.Processing, status.Completed, status.Failed},
	status.Processing: {status.Completed, status.Failed},
	status.Failed:     {status.Pending},
}

// CanTransition reports whether an order in from may move to to.
func CanTransition(from, to string) bool {
	for _, s := range next[from] {
		if s == to {
			return true
		}
	}
	return false
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("data_orders")}
}

// NewReference returns a short unique order reference.
func NewReference() string {
	return "ORD-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

// Create inserts a pending order.
func (s *Store) Create(ctx context.Context, o models.Order) (models.Order, error) {
	if !o.Amount.Positive() {
		return models.Order{}, errBadAmount
	}
	o.ID = primitive.NewObjectID()
	if o.Reference == "" {
		o.Reference = NewReference()
	}
	o.Network = strings.ToLower(strings.TrimSpace(o.Network))
	o.Recipient = normalize.Phone(o.Recipient)
	o.Status = status.Pending

	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, o); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Order{}, ErrDuplicateReference
		}
		return models.Order{}, err
	}
	return o, nil
}

// GetByID loads an order.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Order, error) {
	var o models.Order
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Order{}, ErrNotFound
		}
		return models.Order{}, err
	}
	return o, nil
}

// ListFilter narrows List, Count and Revenue. Zero values match everything.
type ListFilter struct {
	WorkspaceID primitive.ObjectID
	AgentID     primitive.ObjectID
	Status      string
	Wholesale   *bool
}

func (f ListFilter) bson() bson.M {
	m := bson.M{}
	if !f.WorkspaceID.IsZero() {
		m["workspace_id"] = f.WorkspaceID
	}
	if !f.AgentID.IsZero() {
		m["agent_id"] = f.AgentID
	}
	if f.Status != "" {
		m["status"] = f.Status
	}
	if f.Wholesale != nil {
		m["wholesale"] = *f.Wholesale
	}
	return m
}

// List returns orders newest first.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.Order, error) {
	cur, err := s.c.Find(ctx, f.bson(), options.Find().SetSort(bson.D{
		{Key: "created_at", Value: -1},
		{Key: "_id", Value: -1},
	}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Order{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count counts orders matching f.
func (s *Store) Count(ctx context.Context, f ListFilter) (int64, error) {
	return s.c.CountDocuments(ctx, f.bson())
}

// Revenue sums the amount of completed orders matching f. The Status in
// f is ignored.
func (s *Store) Revenue(ctx context.Context, f ListFilter) (models.Money, error) {
	match := f.bson()
	match["status"] = status.Completed
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$amount"}}}},
	})
	if err != nil {
		return models.Money{}, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		Total models.Money `bson:"total"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return models.Money{}, err
	}
	if len(rows) == 0 {
		return models.MoneyFromInt(0), nil
	}
	return rows[0].Total, nil
}

// SetStatus moves an order along its lifecycle.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, to string) (models.Order, error) {
	o, err := s.GetByID(ctx, id)
	if err != nil {
		return models.Order{}, err
	}
	if !CanTransition(o.Status, to) {
		return models.Order{}, ErrBadTransition
	}
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": o.Status},
		bson.M{"$set": bson.M{"status": to, "updated_at": now}})
	if err != nil {
		return models.Order{}, err
	}
	if res.MatchedCount == 0 {
		// Someone else moved it first.
		return models.Order{}, ErrBadTransition
	}
	o.Status = to
	o.UpdatedAt = now
	return o, nil
}

// Delete removes an order. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
