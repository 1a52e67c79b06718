package bunx

import "github.com/google/uuid"

// NewUUIDv7 generates a time-ordered UUIDv7 string for row primary keys.
// Time ordering keeps inserts index-friendly on both PostgreSQL and SQLite.
// Generation only fails when the entropy source is exhausted, at which point
// nothing else works either, so the failure is a panic.
func NewUUIDv7() string {
	return uuid.Must(uuid.NewV7()).String()
}
