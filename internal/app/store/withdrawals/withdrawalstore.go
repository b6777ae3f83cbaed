package withdrawalstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/channelhub/internal/app/system/status"
	"github.com/dalemusser/channelhub/internal/app/system/storeerr"
	"github.com/dalemusser/channelhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Payout methods.
const (
	MethodMoMo = "momo"
	MethodBank = "bank"
)

var (
	// ErrNotFound is returned when no withdrawal matches.
	ErrNotFound = errors.New("withdrawal not found")
	// ErrBadTransition is returned for a status change the withdrawal cannot make.
	ErrBadTransition = errors.New("withdrawal cannot move to that status")

	errBadAmount = storeerr.Invalid("withdrawal amount must be positive")
	errBadMethod = storeerr.Invalid(`method must be "momo"|"bank"`)
)

var next = map[string][]string{
	status.Pending:  {status.Approved, status.Rejected},
	status.Approved: {status.Paid, status.Rejected},
}

// CanTransition reports whether a withdrawal in from may move to to.
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
	return &Store{c: db.Collection("withdrawals")}
}

// Create inserts a pending withdrawal request.
func (s *Store) Create(ctx context.Context, w models.Withdrawal) (models.Withdrawal, error) {
	if !w.Amount.Positive() {
		return models.Withdrawal{}, errBadAmount
	}
	w.Method = strings.ToLower(strings.TrimSpace(w.Method))
	if w.Method != MethodMoMo && w.Method != MethodBank {
		return models.Withdrawal{}, errBadMethod
	}
	w.ID = primitive.NewObjectID()
	w.Account = strings.TrimSpace(w.Account)
	w.Status = status.Pending
	now := time.Now().UTC()
	w.CreatedAt = now
	w.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, w); err != nil {
		return models.Withdrawal{}, err
	}
	return w, nil
}

// GetByID loads a withdrawal.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Withdrawal, error) {
	var w models.Withdrawal
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&w); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Withdrawal{}, ErrNotFound
		}
		return models.Withdrawal{}, err
	}
	return w, nil
}

// ListFilter narrows List and Count. Zero values match everything.
type ListFilter struct {
	WorkspaceID primitive.ObjectID
	AgentID     primitive.ObjectID
	Status      string
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
	return m
}

// List returns withdrawals newest first.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.Withdrawal, error) {
	cur, err := s.c.Find(ctx, f.bson(), options.Find().SetSort(bson.D{
		{Key: "created_at", Value: -1},
		{Key: "_id", Value: -1},
	}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Withdrawal{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count counts withdrawals matching f.
func (s *Store) Count(ctx context.Context, f ListFilter) (int64, error) {
	return s.c.CountDocuments(ctx, f.bson())
}

// Transition moves w from its current status to to, recording note.
// The write only lands if the status has not changed since w was read.
func (s *Store) Transition(ctx context.Context, w models.Withdrawal, to, note string) (models.Withdrawal, error) {
	if !CanTransition(w.Status, to) {
		return models.Withdrawal{}, ErrBadTransition
	}
	now := time.Now().UTC()
	set := bson.M{"status": to, "updated_at": now}
	if note = strings.TrimSpace(note); note != "" {
		set["note"] = note
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": w.ID, "status": w.Status}, bson.M{"$set": set})
	if err != nil {
		return models.Withdrawal{}, err
	}
	if res.MatchedCount == 0 {
		return models.Withdrawal{}, ErrBadTransition
	}
	w.Status = to
	w.UpdatedAt = now
	if note != "" {
		w.Note = note
	}
	return w, nil
}

// Delete removes a withdrawal. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
