// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// spec is the desired index set for one collection.
type spec struct {
	collection string
	models     []mongo.IndexModel
}

func idx(name string, unique bool, keys ...bson.E) mongo.IndexModel {
	o := options.Index().SetName(name)
	if unique {
		o.SetUnique(true)
	}
	return mongo.IndexModel{Keys: bson.D(keys), Options: o}
}

func asc(k string) bson.E  { return bson.E{Key: k, Value: 1} }
func desc(k string) bson.E { return bson.E{Key: k, Value: -1} }

// desired lists every index the stores rely on. Tab fetchers sort by pin
// flag then time, so those pairs lead the channel indexes.
func desired() []spec {
	return []spec{
		{"workspaces", []mongo.IndexModel{
			idx("uniq_workspaces_subdomain", true, asc("subdomain")),
			idx("idx_workspaces_nameci", false, asc("name_ci")),
		}},
		{"users", []mongo.IndexModel{
			idx("uniq_users_loginidci", true, asc("login_id_ci")),
			idx("idx_users_role_status_fullnameci", false, asc("role"), asc("status"), asc("full_name_ci")),
		}},
		{"agents", []mongo.IndexModel{
			idx("uniq_agents_user", true, asc("user_id")),
			idx("uniq_agents_referral_code", true, asc("referral_code")),
			idx("idx_agents_ws_status_created", false, asc("workspace_id"), asc("status"), desc("created_at")),
			idx("idx_agents_nameci", false, asc("name_ci")),
		}},
		{"referrals", []mongo.IndexModel{
			idx("uniq_referrals_pair", true, asc("referrer_id"), asc("referred_id")),
			idx("idx_referrals_referrer_created", false, asc("referrer_id"), desc("created_at")),
			idx("idx_referrals_ws_created", false, asc("workspace_id"), desc("created_at")),
		}},
		{"data_orders", []mongo.IndexModel{
			idx("uniq_orders_reference", true, asc("reference")),
			idx("idx_orders_agent_created", false, asc("agent_id"), desc("created_at")),
			idx("idx_orders_ws_status_created", false, asc("workspace_id"), asc("status"), desc("created_at")),
			idx("idx_orders_wholesale_status", false, asc("wholesale"), asc("status")),
		}},
		{"withdrawals", []mongo.IndexModel{
			idx("idx_withdrawals_agent_created", false, asc("agent_id"), desc("created_at")),
			idx("idx_withdrawals_ws_status_created", false, asc("workspace_id"), asc("status"), desc("created_at")),
		}},
		{"jobs", []mongo.IndexModel{
			idx("idx_jobs_ws_status_created", false, asc("workspace_id"), asc("status"), desc("created_at")),
			idx("idx_jobs_assigned", false, asc("assigned_to")),
		}},
		{"channels", []mongo.IndexModel{
			idx("uniq_channels_teacher", true, asc("teacher_id")),
			idx("idx_channels_nameci", false, asc("name_ci")),
		}},
		{"channel_memberships", []mongo.IndexModel{
			idx("uniq_memberships_channel_user", true, asc("channel_id"), asc("user_id")),
			idx("idx_memberships_user_status", false, asc("user_id"), asc("status")),
		}},
		{"channel_posts", []mongo.IndexModel{
			idx("idx_posts_channel_pinned_created", false, asc("channel_id"), desc("pinned"), desc("created_at")),
		}},
		{"post_comments", []mongo.IndexModel{
			idx("idx_comments_post_created", false, asc("post_id"), asc("created_at")),
		}},
		{"qa_posts", []mongo.IndexModel{
			idx("idx_qa_channel_created", false, asc("channel_id"), desc("created_at")),
		}},
		{"videos", []mongo.IndexModel{
			idx("idx_videos_channel_pinned_created", false, asc("channel_id"), desc("pinned"), desc("created_at")),
		}},
		{"lesson_notes", []mongo.IndexModel{
			idx("idx_notes_channel_created", false, asc("channel_id"), desc("created_at")),
		}},
	}
}

// EnsureAll reconciles every collection's indexes. Each step is
// idempotent; problems are aggregated so startup can fail with the full
// picture.
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	var problems []string
	for _, s := range desired() {
		if err := ensureIndexSet(ctx, db.Collection(s.collection), s.models, logger); err != nil {
			problems = append(problems, s.collection+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// Names returns the desired index names for collection.
func Names(collection string) []string {
	for _, s := range desired() {
		if s.collection != collection {
			continue
		}
		out := make([]string, 0, len(s.models))
		for _, m := range s.models {
			out = append(out, *m.Options.Name)
		}
		return out
	}
	return nil
}

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func isUnique(b *bool) bool { return b != nil && *b }

func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

func listExisting(ctx context.Context, coll *mongo.Collection, log *zap.Logger) map[string]existingIndex {
	existing := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return existing
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var ix existingIndex
		if err := cur.Decode(&ix); err != nil {
			log.Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(ix.Key)] = ix
	}
	return existing
}

// ensureIndexSet creates missing indexes and realigns ones whose name or
// uniqueness drifted from the desired definition.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel, log *zap.Logger) error {
	var errs []string
	existing := listExisting(ctx, coll, log)

	for _, m := range models {
		name := *m.Options.Name
		unique := isUnique(m.Options.Unique)
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()

		fields := []zap.Field{
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", unique),
		}

		if ex, ok := existing[sig]; ok {
			if ex.Name == name && isUnique(ex.Unique) == unique {
				log.Debug("reusing existing index", fields...)
				continue
			}
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				log.Warn("drop drifted index failed", append(fields, zap.String("existing", ex.Name), zap.Error(err))...)
				errs = append(errs, fmt.Sprintf("%s: drop %s failed: %v", name, ex.Name, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if unique && isDuplicateKeyErr(err) {
				errs = append(errs, fmt.Sprintf("%s: cannot create unique index (duplicates present)", name))
			} else {
				errs = append(errs, fmt.Sprintf("%s: %v", name, err))
			}
			log.Warn("index ensure failed", append(fields, zap.Error(err))...)
			continue
		}
		log.Info("index ensured", append(fields, zap.Duration("took", time.Since(start)))...)
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
