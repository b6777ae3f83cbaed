// internal/app/store/memberships/membershipstore.go
package membershipstore

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

// Subscription plans.
const (
	PlanFree = "free"
	PlanPaid = "paid"
)

var (
	// ErrNotSubscribed is returned when removing a subscription that does not exist.
	ErrNotSubscribed = errors.New("not subscribed to this channel")

	errBadPlan = storeerr.Invalid(`plan must be "free"|"paid"`)
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("channel_memberships")}
}

// Subscribe activates userID's membership in channelID. Re-subscribing
// after a cancel reuses the same document.
func (s *Store) Subscribe(ctx context.Context, channelID, userID primitive.ObjectID, plan string) (models.Membership, error) {
	if plan == "" {
		plan = PlanFree
	}
	if plan != PlanFree && plan != PlanPaid {
		return models.Membership{}, errBadPlan
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	filter := bson.M{"channel_id": channelID, "user_id": userID}
	update := bson.M{
		"$set":         bson.M{"plan": plan, "status": status.Active},
		"$setOnInsert": bson.M{"_id": primitive.NewObjectID(), "created_at": time.Now().UTC()},
	}
	var m models.Membership
	err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&m)
	if err != nil && wafflemongo.IsDup(err) {
		// Lost an upsert race; the other insert won, so update it.
		err = s.c.FindOneAndUpdate(ctx, filter, bson.M{"$set": update["$set"]},
			options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&m)
	}
	if err != nil {
		return models.Membership{}, err
	}
	return m, nil
}

// Unsubscribe cancels the membership; the document is kept for history.
func (s *Store) Unsubscribe(ctx context.Context, channelID, userID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"channel_id": channelID, "user_id": userID, "status": status.Active},
		bson.M{"$set": bson.M{"status": status.Cancelled}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotSubscribed
	}
	return nil
}

// IsSubscribed reports whether userID has an active membership in channelID.
func (s *Store) IsSubscribed(ctx context.Context, channelID, userID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{
		"channel_id": channelID,
		"user_id":    userID,
		"status":     status.Active,
	}).Err()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	return false, err
}

// ChannelIDs returns the channels userID is actively subscribed to.
func (s *Store) ChannelIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID, "status": status.Active},
		options.Find().SetProjection(bson.M{"channel_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []primitive.ObjectID{}
	for cur.Next(ctx) {
		var row struct {
			ChannelID primitive.ObjectID `bson:"channel_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out = append(out, row.ChannelID)
	}
	return out, cur.Err()
}

// ListByChannel returns a channel's active subscribers, newest first.
func (s *Store) ListByChannel(ctx context.Context, channelID primitive.ObjectID) ([]models.Membership, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"channel_id": channelID, "status": status.Active},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Membership{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountByChannel counts a channel's active subscribers.
func (s *Store) CountByChannel(ctx context.Context, channelID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"channel_id": channelID, "status": status.Active})
}

// DeleteByChannel removes every membership of a channel.
func (s *Store) DeleteByChannel(ctx context.Context, channelID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"channel_id": channelID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
