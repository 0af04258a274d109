// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/kinshealth/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// collection pairs a collection name with its JSON schema; nil means the
// collection is created without a validator.
type collection struct {
	name   string
	schema func() bson.M
}

var collections = []collection{
	{"users", usersSchema},
	{"jobs", jobsSchema},
	{"notifications", notificationsSchema},
	{"threads", threadsSchema},
	{"posts", postsSchema},
	{"likes", likesSchema},
	{"contacts", nil},
}

// Mongo server error codes.
const (
	codeNamespaceExists = 48
	codeCommandNotFound = 59
	codeNotImplemented  = 115
)

// EnsureAll creates the marketplace collections and attaches JSON-Schema
// validators. Servers without collMod support (some DocumentDB versions)
// are logged and skipped. Every collection is attempted; failures are joined.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	existing := map[string]bool{}
	if names, err := db.ListCollectionNames(ctx, bson.M{}); err == nil {
		for _, n := range names {
			existing[n] = true
		}
	}

	var errs []error
	for _, c := range collections {
		if err := ensureOne(ctx, db, c, existing[c.name]); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
		}
	}
	return errors.Join(errs...)
}

func ensureOne(ctx context.Context, db *mongo.Database, c collection, exists bool) error {
	log := zap.L().With(zap.String("collection", c.name))
	if !exists {
		err := db.CreateCollection(ctx, c.name)
		switch {
		case err == nil:
			log.Info("created collection")
		case serverSays(err, codeNamespaceExists, "already exists", "namespace exists"):
			// lost a race with another instance
		default:
			return err
		}
	}
	if c.schema == nil {
		return nil
	}

	cmd := bson.D{
		{Key: "collMod", Value: c.name},
		{Key: "validator", Value: bson.M{"$jsonSchema": c.schema()}},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	err := db.RunCommand(ctx, cmd).Err()
	if serverSays(err, codeCommandNotFound, "no such command") ||
		serverSays(err, codeNotImplemented, "not implemented", "not supported") {
		log.Info("validator skipped (unsupported)")
		return nil
	}
	if err != nil {
		return err
	}
	log.Debug("validator ensured")
	return nil
}

// serverSays reports whether err is a command error with code, or carries
// one of the given phrases in its message.
func serverSays(err error, code int32, phrases ...string) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == code {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, p := range phrases {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// Schemas are applied with validationLevel "moderate": documents that already
// break a rule can still be updated.

func nonBlank() bson.M {
	return bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}
}

func geoPoint() bson.M {
	return bson.M{
		"bsonType": "object",
		"required": bson.A{"type", "coordinates"},
		"properties": bson.M{
			"type":        bson.M{"enum": bson.A{"Point"}},
			"coordinates": bson.M{"bsonType": "array", "minItems": 2, "maxItems": 2},
		},
	}
}

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"userID", "role"},
			"properties": bson.M{
				"userID":                nonBlank(),
				"role":                  bson.M{"enum": bson.A{models.RoleCaregiver, models.RoleProvider}},
				"email":                 bson.M{"bsonType": bson.A{"string", "null"}},
				"geocode_address":       geoPoint(),
				"complete":              bson.M{"bsonType": "bool"},
				"favorite_jobs":         bson.M{"bsonType": "array"},
				"application_submitted": bson.M{"bsonType": "array"},
				"saved_candidates":      bson.M{"bsonType": "array"},
			},
		},
	}
}

func jobsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"userID", "draft", "created"},
			"properties": bson.M{
				"userID":          nonBlank(),
				"draft":           bson.M{"bsonType": "bool"},
				"geocode_address": geoPoint(),
				"licenses":        bson.M{"bsonType": "array"},
				"minHours":        bson.M{"bsonType": bson.A{"int", "long", "double"}, "minimum": 0},
				"mobility":        bson.M{"enum": bson.A{models.MobilityCarNeeded, models.MobilityNoCarNeeded, ""}},
				"applicants":      bson.M{"bsonType": "array"},
				"created":         bson.M{"bsonType": "date"},
			},
		},
	}
}

func notificationsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"type", "toUserId", "message", "read", "createdAt"},
			"properties": bson.M{
				"type":      nonBlank(),
				"toUserId":  nonBlank(),
				"message":   bson.M{"bsonType": "string"},
				"read":      bson.M{"bsonType": "bool"},
				"createdAt": bson.M{"bsonType": "date"},
			},
		},
	}
}

func threadsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"title", "creator", "replies", "views", "createdAt"},
			"properties": bson.M{
				"title":      nonBlank(),
				"creator":    nonBlank(),
				"replies":    bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
				"views":      bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
				"likesCount": bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
				"posts":      bson.M{"bsonType": "array"},
				"createdAt":  bson.M{"bsonType": "date"},
			},
		},
	}
}

func postsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"threadId", "author", "content", "createdAt"},
			"properties": bson.M{
				"threadId":  bson.M{"bsonType": "objectId"},
				"author":    nonBlank(),
				"content":   bson.M{"bsonType": "string"},
				"parent":    bson.M{"bsonType": bson.A{"objectId", "null"}},
				"children":  bson.M{"bsonType": "array"},
				"createdAt": bson.M{"bsonType": "date"},
			},
		},
	}
}

func likesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"userID", "itemId", "itemType"},
			"properties": bson.M{
				"userID":   nonBlank(),
				"itemId":   bson.M{"bsonType": "objectId"},
				"itemType": bson.M{"enum": bson.A{models.ItemThread, models.ItemPost, models.ItemReply}},
			},
		},
	}
}
