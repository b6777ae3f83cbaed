package testutil

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/channelhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// Fixtures inserts test records directly into the collections the stores
// read from.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures binds fixtures to db.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database.
func (f *Fixtures) DB() *mongo.Database { return f.db }

func (f *Fixtures) insert(ctx context.Context, coll string, doc any) {
	f.t.Helper()
	if _, err := f.db.Collection(coll).InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("insert into %s: %v", coll, err)
	}
}

// CreateUser inserts an active user with the given role and password.
func (f *Fixtures) CreateUser(ctx context.Context, loginID, role, password string) models.User {
	f.t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("hash password: %v", err)
	}
	now := time.Now().UTC()
	u := models.User{
		ID:           primitive.NewObjectID(),
		FullName:     "User " + loginID,
		FullNameCI:   text.Fold("User " + loginID),
		LoginID:      loginID,
		LoginIDCI:    text.Fold(loginID),
		PasswordHash: string(hash),
		Role:         role,
		Status:       "active",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.insert(ctx, "users", u)
	return u
}

// CreateAgent inserts an agent record for userID.
func (f *Fixtures) CreateAgent(ctx context.Context, userID primitive.ObjectID, name, status string) models.Agent {
	f.t.Helper()
	now := time.Now().UTC()
	a := models.Agent{
		ID:           primitive.NewObjectID(),
		UserID:       userID,
		DisplayName:  name,
		NameCI:       text.Fold(name),
		Phone:        "0240000000",
		ReferralCode: strings.ToUpper(primitive.NewObjectID().Hex()[16:]),
		Tier:         "basic",
		Status:       status,
		Balance:      models.MoneyFromInt(0),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.insert(ctx, "agents", a)
	return a
}

// CreateOrder inserts an order for agentID.
func (f *Fixtures) CreateOrder(ctx context.Context, agentID primitive.ObjectID, amount int64, status string, wholesale bool) models.Order {
	f.t.Helper()
	now := time.Now().UTC()
	o := models.Order{
		ID:        primitive.NewObjectID(),
		AgentID:   agentID,
		Reference: primitive.NewObjectID().Hex(),
		Network:   "mtn",
		Bundle:    "1GB",
		Recipient: "0241234567",
		Amount:    models.MoneyFromInt(amount),
		Wholesale: wholesale,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.insert(ctx, "data_orders", o)
	return o
}

// CreateWithdrawal inserts a withdrawal for agentID.
func (f *Fixtures) CreateWithdrawal(ctx context.Context, agentID primitive.ObjectID, amount int64, status string) models.Withdrawal {
	f.t.Helper()
	now := time.Now().UTC()
	w := models.Withdrawal{
		ID:        primitive.NewObjectID(),
		AgentID:   agentID,
		Amount:    models.MoneyFromInt(amount),
		Method:    "momo",
		Account:   "0241234567",
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.insert(ctx, "withdrawals", w)
	return w
}

// CreateChannel inserts a channel owned by teacherID.
func (f *Fixtures) CreateChannel(ctx context.Context, teacherID primitive.ObjectID, name string) models.Channel {
	f.t.Helper()
	now := time.Now().UTC()
	c := models.Channel{
		ID:        primitive.NewObjectID(),
		TeacherID: teacherID,
		Name:      name,
		NameCI:    text.Fold(name),
		Subject:   "Mathematics",
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.insert(ctx, "channels", c)
	return c
}

// CreatePost inserts a post in channelID. created is used for ordering.
func (f *Fixtures) CreatePost(ctx context.Context, channelID, authorID primitive.ObjectID, title string, pinned bool, created time.Time) models.Post {
	f.t.Helper()
	p := models.Post{
		ID:        primitive.NewObjectID(),
		ChannelID: channelID,
		AuthorID:  authorID,
		Title:     title,
		Body:      "Body of " + title,
		Category:  "lesson",
		Pinned:    pinned,
		LikedBy:   []primitive.ObjectID{},
		SavedBy:   []primitive.ObjectID{},
		CreatedAt: created,
		UpdatedAt: created,
	}
	f.insert(ctx, "channel_posts", p)
	return p
}

// Subscribe inserts an active membership.
func (f *Fixtures) Subscribe(ctx context.Context, channelID, userID primitive.ObjectID) models.Membership {
	f.t.Helper()
	m := models.Membership{
		ID:        primitive.NewObjectID(),
		ChannelID: channelID,
		UserID:    userID,
		Plan:      "free",
		Status:    "active",
		CreatedAt: time.Now().UTC(),
	}
	f.insert(ctx, "channel_memberships", m)
	return m
}
