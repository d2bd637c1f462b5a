package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New generates a ULID string for use as an account identifier. ULIDs are
// opaque to callers, lexicographically sortable by creation time and safe
// as DynamoDB key attributes.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
