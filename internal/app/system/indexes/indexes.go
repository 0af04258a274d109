// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
Errors are aggregated so every problem is visible and startup fails fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	sets := []struct {
		coll   string
		models []mongo.IndexModel
	}{
		{"users", usersIndexes()},
		{"jobs", jobsIndexes()},
		{"notifications", notificationsIndexes()},
		{"threads", threadsIndexes()},
		{"posts", postsIndexes()},
		{"likes", likesIndexes()},
		{"contacts", contactsIndexes()},
		{"audit_events", auditIndexes()},
	}
	for _, s := range sets {
		if err := ensureIndexSet(ctx, db.Collection(s.coll), s.models); err != nil {
			problems = append(problems, s.coll+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Reconcile a set of desired indexes for one collection                      */
/* -------------------------------------------------------------------------- */

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

func boolVal(p *bool) bool { return p != nil && *p }

// IndexOptionsConflict shows up when an index with the same keys exists
// under another name or with other options.
func isOptionsConflictErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "IndexOptionsConflict")
}

func listBySig(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	out := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return out
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()), zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		var name string
		var unique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			unique = m.Options.Unique
		}
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()
		fields := []zap.Field{
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", boolVal(unique)),
		}

		ex, found := listBySig(ctx, coll)[sig]
		if found && boolVal(ex.Unique) == boolVal(unique) && (name == "" || ex.Name == name) {
			zap.L().Debug("reusing existing index", fields...)
			continue
		}
		if found {
			// Same keys under a different name or uniqueness: drop and recreate.
			zap.L().Info("replacing index", append(fields, zap.String("existing", ex.Name))...)
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), name, err))
				continue
			}
		}

		_, err := coll.Indexes().CreateOne(ctx, m)
		if isOptionsConflictErr(err) {
			if ex, ok := listBySig(ctx, coll)[sig]; ok {
				if _, dropErr := coll.Indexes().DropOne(ctx, ex.Name); dropErr == nil {
					_, err = coll.Indexes().CreateOne(ctx, m)
				}
			}
		}
		if err != nil {
			if wafflemongo.IsDup(err) && boolVal(unique) {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), name))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
			}
			zap.L().Warn("index ensure failed", append(fields, zap.Error(err))...)
			continue
		}
		zap.L().Info("index ensured", append(fields, zap.String("took", time.Since(start).String()))...)
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                             */
/* -------------------------------------------------------------------------- */

func usersIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		// Every other collection joins on userID.
		{
			Keys:    bson.D{{Key: "userID", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_userid"),
		},
		{
			Keys:    bson.D{{Key: "geocode_address", Value: "2dsphere"}},
			Options: options.Index().SetName("geo_users_location"),
		},
		// Caregiver listings filter on role+complete and sort newest first.
		{
			Keys: bson.D{
				{Key: "role", Value: 1},
				{Key: "complete", Value: 1},
				{Key: "created", Value: -1},
			},
			Options: options.Index().SetName("idx_users_role_complete_created"),
		},
		{
			Keys:    bson.D{{Key: "role", Value: 1}, {Key: "city", Value: 1}},
			Options: options.Index().SetName("idx_users_role_city"),
		},
		{
			Keys:    bson.D{{Key: "role", Value: 1}, {Key: "zipcode", Value: 1}},
			Options: options.Index().SetName("idx_users_role_zipcode"),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("idx_users_email"),
		},
	}
}

func jobsIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "geocode_address", Value: "2dsphere"}},
			Options: options.Index().SetName("geo_jobs_location"),
		},
		// Public listings: draft=false, newest first.
		{
			Keys:    bson.D{{Key: "draft", Value: 1}, {Key: "created", Value: -1}},
			Options: options.Index().SetName("idx_jobs_draft_created"),
		},
		// Provider's own postings.
		{
			Keys:    bson.D{{Key: "userID", Value: 1}, {Key: "created", Value: -1}},
			Options: options.Index().SetName("idx_jobs_userid_created"),
		},
		{
			Keys:    bson.D{{Key: "applicants.userID", Value: 1}},
			Options: options.Index().SetName("idx_jobs_applicants_userid"),
		},
	}
}

func notificationsIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "toUserId", Value: 1},
				{Key: "read", Value: 1},
				{Key: "createdAt", Value: -1},
			},
			Options: options.Index().SetName("idx_notifications_to_read_created"),
		},
		// Keeps the job application notice idempotent per (job, caregiver).
		{
			Keys: bson.D{
				{Key: "type", Value: 1},
				{Key: "fromUserId", Value: 1},
				{Key: "metadata.jobId", Value: 1},
			},
			Options: options.Index().SetName("idx_notifications_type_from_job"),
		},
	}
}

func threadsIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("idx_threads_created"),
		},
		{
			Keys:    bson.D{{Key: "categories", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("idx_threads_categories_created"),
		},
		{
			Keys:    bson.D{{Key: "tags", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("idx_threads_tags_created"),
		},
		{
			Keys:    bson.D{{Key: "creator", Value: 1}},
			Options: options.Index().SetName("idx_threads_creator"),
		},
	}
}

func postsIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		// Top-level posts of a thread (parent null) in creation order.
		{
			Keys: bson.D{
				{Key: "threadId", Value: 1},
				{Key: "parent", Value: 1},
				{Key: "createdAt", Value: 1},
			},
			Options: options.Index().SetName("idx_posts_thread_parent_created"),
		},
		{
			Keys:    bson.D{{Key: "parent", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index().SetName("idx_posts_parent_created"),
		},
		{
			Keys:    bson.D{{Key: "author", Value: 1}},
			Options: options.Index().SetName("idx_posts_author"),
		},
	}
}

func likesIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		// A duplicate insert is the "already liked" signal.
		{
			Keys: bson.D{
				{Key: "userID", Value: 1},
				{Key: "itemId", Value: 1},
				{Key: "itemType", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("uniq_likes_user_item_type"),
		},
		{
			Keys:    bson.D{{Key: "itemId", Value: 1}},
			Options: options.Index().SetName("idx_likes_item"),
		},
	}
}

func contactsIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_contacts_email"),
		},
		{
			Keys:    bson.D{{Key: "customer_id", Value: 1}},
			Options: options.Index().SetName("idx_contacts_customer"),
		},
	}
}

func auditIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_time"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_user_time"),
		},
		{
			Keys: bson.D{
				{Key: "category", Value: 1},
				{Key: "event_type", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().SetName("idx_audit_category_type_time"),
		},
	}
}
