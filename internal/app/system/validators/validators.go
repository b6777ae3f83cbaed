// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/channelhub/internal/app/system/status"
	"github.com/dalemusser/channelhub/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("workspaces", workspacesSchema())
	ensure("users", usersSchema())

	// Commerce
	ensure("agents", agentsSchema())
	ensure("referrals", referralsSchema())
	ensure("data_orders", ordersSchema())
	ensure("withdrawals", withdrawalsSchema())
	ensure("jobs", jobsSchema())

	// Teaching channels
	ensure("channels", channelsSchema())
	ensure("channel_memberships", membershipsSchema())
	ensure("channel_posts", postsSchema())
	ensure("post_comments", commentsSchema())
	ensure("qa_posts", qaPostsSchema())
	ensure("videos", videosSchema())
	ensure("lesson_notes", notesSchema())

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var (
	nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}
	oid      = bson.M{"bsonType": "objectId"}
	date     = bson.M{"bsonType": "date"}
	// Money is stored as Decimal128; the bound is checked in the stores.
	money = bson.M{"bsonType": "decimal"}
)

func enum(vals ...string) bson.M {
	a := bson.A{}
	for _, v := range vals {
		a = append(a, v)
	}
	return bson.M{"enum": a}
}

func object(required []string, props bson.M) bson.M {
	req := bson.A{}
	for _, r := range required {
		req = append(req, r)
	}
	return bson.M{"$jsonSchema": bson.M{
		"bsonType":   "object",
		"required":   req,
		"properties": props,
	}}
}

func workspacesSchema() bson.M {
	return object([]string{"name", "status"}, bson.M{
		"name":   nonBlank,
		"status": enum(status.Active, status.Disabled),
	})
}

func usersSchema() bson.M {
	return object([]string{"full_name", "login_id", "role", "status"}, bson.M{
		"full_name":    nonBlank,
		"full_name_ci": nonBlank,
		"login_id":     nonBlank,
		"login_id_ci":  bson.M{"bsonType": "string"},
		"phone":        bson.M{"bsonType": "string"},
		"role":         enum(models.RoleSuperAdmin, models.RoleAdmin, models.RoleAgent, models.RoleTeacher, models.RoleMember),
		"status":       enum(status.Active, status.Disabled),
	})
}

func agentsSchema() bson.M {
	return object([]string{"user_id", "display_name", "referral_code", "tier", "status", "balance"}, bson.M{
		"user_id":       oid,
		"display_name":  nonBlank,
		"referral_code": bson.M{"bsonType": "string", "pattern": "^[A-Z0-9]{8}$"},
		"referred_by":   oid,
		"tier":          enum("basic", "wholesale"),
		"status":        enum(status.Pending, status.Active, status.Suspended),
		"balance":       money,
	})
}

func referralsSchema() bson.M {
	return object([]string{"referrer_id", "referred_id", "status", "commission"}, bson.M{
		"referrer_id": oid,
		"referred_id": oid,
		"status":      enum(status.Pending, status.Active, status.Paid),
		"commission":  money,
		"created_at":  date,
	})
}

func ordersSchema() bson.M {
	return object([]string{"agent_id", "reference", "network", "recipient", "amount", "status"}, bson.M{
		"agent_id":   oid,
		"reference":  nonBlank,
		"network":    enum("mtn", "telecel", "airteltigo"),
		"bundle":     bson.M{"bsonType": "string"},
		"recipient":  nonBlank,
		"amount":     money,
		"wholesale":  bson.M{"bsonType": "bool"},
		"status":     enum(status.Pending, status.Processing, status.Completed, status.Failed),
		"created_at": date,
	})
}

func withdrawalsSchema() bson.M {
	return object([]string{"agent_id", "amount", "method", "account", "status"}, bson.M{
		"agent_id": oid,
		"amount":   money,
		"method":   enum("momo", "bank"),
		"account":  nonBlank,
		"status":   enum(status.Pending, status.Approved, status.Rejected, status.Paid),
		"note":     bson.M{"bsonType": "string"},
	})
}

func jobsSchema() bson.M {
	return object([]string{"title", "title_ci", "status", "reward"}, bson.M{
		"title":       nonBlank,
		"title_ci":    nonBlank,
		"description": bson.M{"bsonType": "string"},
		"category":    bson.M{"bsonType": "string"},
		"reward":      money,
		"assigned_to": oid,
		"status":      enum(status.Open, status.Assigned, status.Done, status.Closed),
	})
}

func channelsSchema() bson.M {
	return object([]string{"teacher_id", "name", "name_ci", "status"}, bson.M{
		"teacher_id":  oid,
		"name":        nonBlank,
		"name_ci":     nonBlank,
		"subject":     bson.M{"bsonType": "string"},
		"description": bson.M{"bsonType": "string"},
		"status":      enum(status.Active, status.Disabled),
	})
}

func membershipsSchema() bson.M {
	return object([]string{"channel_id", "user_id", "plan", "status"}, bson.M{
		"channel_id": oid,
		"user_id":    oid,
		"plan":       enum("free", "paid"),
		"status":     enum(status.Active, status.Cancelled),
		"created_at": date,
	})
}

func postsSchema() bson.M {
	return object([]string{"channel_id", "author_id", "category", "likes", "comments"}, bson.M{
		"channel_id": oid,
		"author_id":  oid,
		"title":      bson.M{"bsonType": "string"},
		"body":       bson.M{"bsonType": "string"},
		"category":   enum("lesson", "announcement", "homework"),
		"pinned":     bson.M{"bsonType": "bool"},
		"liked_by":   bson.M{"bsonType": "array", "items": oid},
		"saved_by":   bson.M{"bsonType": "array", "items": oid},
		"likes":      bson.M{"bsonType": "number", "minimum": 0},
		"comments":   bson.M{"bsonType": "number", "minimum": 0},
	})
}

func commentsSchema() bson.M {
	return object([]string{"post_id", "author_id", "body"}, bson.M{
		"post_id":    oid,
		"author_id":  oid,
		"author":     bson.M{"bsonType": "string"},
		"body":       nonBlank,
		"created_at": date,
	})
}

func qaPostsSchema() bson.M {
	return object([]string{"channel_id", "asker_id", "question", "resolved"}, bson.M{
		"channel_id": oid,
		"asker_id":   oid,
		"question":   nonBlank,
		"topic":      bson.M{"bsonType": "string"},
		"answers": bson.M{
			"bsonType": "array",
			"items": bson.M{
				"bsonType": "object",
				"required": bson.A{"author_id", "body"},
				"properties": bson.M{
					"author_id":  oid,
					"body":       nonBlank,
					"created_at": date,
				},
			},
		},
		"resolved": bson.M{"bsonType": "bool"},
	})
}

func videosSchema() bson.M {
	return object([]string{"channel_id", "title", "source", "url"}, bson.M{
		"channel_id":   oid,
		"title":        nonBlank,
		"title_ci":     nonBlank,
		"source":       enum("youtube", "upload"),
		"url":          nonBlank,
		"youtube_id":   bson.M{"bsonType": "string", "pattern": "^[A-Za-z0-9_-]{11}$"},
		"duration_sec": bson.M{"bsonType": "number", "minimum": 0},
		"pinned":       bson.M{"bsonType": "bool"},
	})
}

func notesSchema() bson.M {
	return object([]string{"channel_id", "author_id", "title", "body"}, bson.M{
		"channel_id": oid,
		"video_id":   oid,
		"author_id":  oid,
		"title":      nonBlank,
		"body":       nonBlank,
	})
}
