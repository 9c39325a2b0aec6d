package utils

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GenerateETag builds a weak validator from a record id and its last update.
// Derived values that can change without a write (such as a lazily resolved
// status) are passed in extra.
func GenerateETag(id primitive.ObjectID, updatedAt time.Time, extra ...string) string {
	key := fmt.Sprintf("%s:%d:%s", id.Hex(), updatedAt.UnixNano(), strings.Join(extra, ","))
	sum := sha1.Sum([]byte(key))
	return `W/"` + hex.EncodeToString(sum[:]) + `"`
}
