package forum

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func mustOID(t *testing.T, hex string) primitive.ObjectID {
	t.Helper()
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		t.Fatalf("bad id %q: %v", hex, err)
	}
	return id
}
