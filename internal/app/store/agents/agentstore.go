package agentstore

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
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Agent tiers.
const (
	TierBasic     = "basic"
	TierWholesale = "wholesale"
)

var (
	// ErrDuplicate is returned when the user already has an agent record.
	ErrDuplicate = errors.New("this user is already an agent")
	// ErrNotFound is returned when no agent matches.
	ErrNotFound = errors.New("agent not found")
	// ErrInsufficientBalance is returned when a debit would go negative.
	ErrInsufficientBalance = errors.New("insufficient balance")

	errBadStatus = storeerr.Invalid(`status must be "pending"|"active"|"suspended"`)
	errBadTier   = storeerr.Invalid(`tier must be "basic"|"wholesale"`)
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("agents")}
}

// NewReferralCode returns an 8 character upper-case code.
func NewReferralCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// Create inserts an agent. New agents start pending with a zero balance
// and a fresh referral code.
func (s *Store) Create(ctx context.Context, a models.Agent) (models.Agent, error) {
	a.ID = primitive.NewObjectID()
	a.DisplayName = normalize.Name(a.DisplayName)
	a.NameCI = text.Fold(a.DisplayName)
	a.Phone = normalize.Phone(a.Phone)
	if a.ReferralCode == "" {
		a.ReferralCode = NewReferralCode()
	}
	if a.Tier == "" {
		a.Tier = TierBasic
	}
	if a.Status == "" {
		a.Status = status.Pending
	}
	if err := validStatus(a.Status); err != nil {
		return models.Agent{}, err
	}
	if err := validTier(a.Tier); err != nil {
		return models.Agent{}, err
	}
	if a.Balance.IsZero() {
		a.Balance = models.MoneyFromInt(0)
	}

	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, a); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Agent{}, ErrDuplicate
		}
		return models.Agent{}, err
	}
	return a, nil
}

func validStatus(st string) error {
	switch st {
	case status.Pending, status.Active, status.Suspended:
		return nil
	}
	return errBadStatus
}

func validTier(t string) error {
	switch t {
	case TierBasic, TierWholesale:
		return nil
	}
	return errBadTier
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.Agent, error) {
	var a models.Agent
	if err := s.c.FindOne(ctx, filter).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Agent{}, ErrNotFound
		}
		return models.Agent{}, err
	}
	return a, nil
}

// GetByID loads an agent by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Agent, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByUserID loads the agent record backing a signed-in user.
func (s *Store) GetByUserID(ctx context.Context, userID primitive.ObjectID) (models.Agent, error) {
	return s.findOne(ctx, bson.M{"user_id": userID})
}

// GetByReferralCode resolves a referral code, ignoring case.
func (s *Store) GetByReferralCode(ctx context.Context, code string) (models.Agent, error) {
	return s.findOne(ctx, bson.M{"referral_code": strings.ToUpper(strings.TrimSpace(code))})
}

// ListFilter narrows List. Zero values match everything.
type ListFilter struct {
	WorkspaceID primitive.ObjectID
	Status      string
	ReferredBy  primitive.ObjectID
}

func (f ListFilter) bson() bson.M {
	m := bson.M{}
	if !f.WorkspaceID.IsZero() {
		m["workspace_id"] = f.WorkspaceID
	}
	if f.Status != "" {
		m["status"] = f.Status
	}
	if !f.ReferredBy.IsZero() {
		m["referred_by"] = f.ReferredBy
	}
	return m
}

// List returns agents newest first.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.Agent, error) {
	cur, err := s.c.Find(ctx, f.bson(), options.Find().SetSort(bson.D{
		{Key: "created_at", Value: -1},
		{Key: "_id", Value: -1},
	}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Agent{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count counts agents matching f.
func (s *Store) Count(ctx context.Context, f ListFilter) (int64, error) {
	return s.c.CountDocuments(ctx, f.bson())
}

// Update holds the admin-editable fields.
type Update struct {
	DisplayName string
	Phone       string
	Tier        string
}

// UpdateProfile rewrites name, phone and tier.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd Update) error {
	if err := validTier(upd.Tier); err != nil {
		return err
	}
	name := normalize.Name(upd.DisplayName)
	return s.set(ctx, id, bson.M{
		"display_name": name,
		"name_ci":      text.Fold(name),
		"phone":        normalize.Phone(upd.Phone),
		"tier":         upd.Tier,
	})
}

// SetStatus approves, suspends or re-activates an agent.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, st string) error {
	st = normalize.Status(st)
	if err := validStatus(st); err != nil {
		return err
	}
	return s.set(ctx, id, bson.M{"status": st})
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

// Credit adds amount to the agent's balance.
func (s *Store) Credit(ctx context.Context, id primitive.ObjectID, amount models.Money) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{
		"$inc": bson.M{"balance": amount},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Debit subtracts amount from the balance, refusing to go below zero.
func (s *Store) Debit(ctx context.Context, id primitive.ObjectID, amount models.Money) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "balance": bson.M{"$gte": amount}},
		bson.M{
			"$inc": bson.M{"balance": amount.Neg()},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if _, err := s.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrInsufficientBalance
	}
	return nil
}

// Delete removes an agent. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
