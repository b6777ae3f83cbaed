package referralstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/channelhub/internal/app/system/status"
	"github.com/dalemusser/channelhub/internal/app/system/storeerr"
	"github.com/dalemusser/channelhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicate is returned when the pair is already recorded.
	ErrDuplicate = errors.New("this referral already exists")
	// ErrNotFound is returned when no referral matches.
	ErrNotFound = errors.New("referral not found")
	// ErrSelfReferral is returned when an agent refers themselves.
	ErrSelfReferral = errors.New("an agent cannot refer themselves")
	// ErrAlreadyPaid is returned when the commission was paid before.
	ErrAlreadyPaid = errors.New("this referral has already been paid")

	errBadStatus = storeerr.Invalid(`status must be "pending"|"active"|"paid"`)
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("referrals")}
}

// Create records that referrer brought in referred.
func (s *Store) Create(ctx context.Context, r models.Referral) (models.Referral, error) {
	if r.ReferrerID == r.ReferredID {
		return models.Referral{}, ErrSelfReferral
	}
	r.ID = primitive.NewObjectID()
	if r.Status == "" {
		r.Status = status.Pending
	}
	if err := validStatus(r.Status); err != nil {
		return models.Referral{}, err
	}
	r.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, r); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Referral{}, ErrDuplicate
		}
		return models.Referral{}, err
	}
	return r, nil
}

func validStatus(st string) error {
	switch st {
	case status.Pending, status.Active, status.Paid:
		return nil
	}
	return errBadStatus
}

// GetByID loads a referral.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Referral, error) {
	var r models.Referral
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Referral{}, ErrNotFound
		}
		return models.Referral{}, err
	}
	return r, nil
}

// ListFilter narrows List. Zero values match everything.
type ListFilter struct {
	WorkspaceID primitive.ObjectID
	ReferrerID  primitive.ObjectID
	Status      string
}

func (f ListFilter) bson() bson.M {
	m := bson.M{}
	if !f.WorkspaceID.IsZero() {
		m["workspace_id"] = f.WorkspaceID
	}
	if !f.ReferrerID.IsZero() {
		m["referrer_id"] = f.ReferrerID
	}
	if f.Status != "" {
		m["status"] = f.Status
	}
	return m
}

// List returns referrals newest first.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.Referral, error) {
	cur, err := s.c.Find(ctx, f.bson(), options.Find().SetSort(bson.D{
		{Key: "created_at", Value: -1},
		{Key: "_id", Value: -1},
	}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Referral{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count counts referrals matching f.
func (s *Store) Count(ctx context.Context, f ListFilter) (int64, error) {
	return s.c.CountDocuments(ctx, f.bson())
}

// SetStatus moves a referral along pending, active and paid.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, st string) error {
	if err := validStatus(st); err != nil {
		return err
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"status": st}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkPaid moves an unpaid referral to paid. Only one caller can win, so
// the commission is credited once.
func (s *Store) MarkPaid(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": bson.M{"$ne": status.Paid}},
		bson.M{"$set": bson.M{"status": status.Paid}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if _, err := s.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrAlreadyPaid
	}
	return nil
}

// Delete removes a referral. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
