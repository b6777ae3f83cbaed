// internal/app/store/workspaces/workspacestore.go
package workspacestore

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

type Store struct {
	c *mongo.Collection
}

var (
	ErrDuplicateSubdomain = errors.New("a workspace with this subdomain already exists")
	ErrNotFound           = errors.New("workspace not found")
	errNoSubdomain        = storeerr.Invalid("workspace subdomain is required")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("workspaces")}
}

// Create inserts a new workspace. Subdomains are stored lower case.
func (s *Store) Create(ctx context.Context, ws models.Workspace) (models.Workspace, error) {
	ws.Name = normalize.Name(ws.Name)
	ws.Subdomain = strings.ToLower(strings.TrimSpace(ws.Subdomain))
	if ws.Subdomain == "" {
		return models.Workspace{}, errNoSubdomain
	}
	now := time.Now().UTC()
	ws.ID = primitive.NewObjectID()
	ws.NameCI = text.Fold(ws.Name)
	if ws.Status == "" {
		ws.Status = status.Active
	}
	ws.CreatedAt = now
	ws.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, ws); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Workspace{}, ErrDuplicateSubdomain
		}
		return models.Workspace{}, err
	}
	return ws, nil
}

// GetByID retrieves a workspace by its ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Workspace, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetBySubdomain retrieves a workspace by its subdomain.
func (s *Store) GetBySubdomain(ctx context.Context, subdomain string) (models.Workspace, error) {
	return s.findOne(ctx, bson.M{"subdomain": strings.ToLower(strings.TrimSpace(subdomain))})
}

// GetFirst returns the oldest workspace, used as the default tenant in
// single-workspace deployments.
func (s *Store) GetFirst(ctx context.Context) (models.Workspace, error) {
	return s.findOne(ctx, bson.M{}, options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}}))
}

func (s *Store) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (models.Workspace, error) {
	var ws models.Workspace
	if err := s.c.FindOne(ctx, filter, opts...).Decode(&ws); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Workspace{}, ErrNotFound
		}
		return models.Workspace{}, err
	}
	return ws, nil
}

// SetStatus moves a workspace between active and suspended.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, st string) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":     normalize.Status(st),
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

// List returns all workspaces ordered by name.
func (s *Store) List(ctx context.Context) ([]models.Workspace, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Workspace{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EnsureDefault returns the first workspace, creating it when the
// collection is empty.
func (s *Store) EnsureDefault(ctx context.Context, name, subdomain string) (models.Workspace, error) {
	ws, err := s.GetFirst(ctx)
	if err == nil {
		return ws, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return models.Workspace{}, err
	}
	return s.Create(ctx, models.Workspace{Name: name, Subdomain: subdomain})
}
