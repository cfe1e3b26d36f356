package types

import "github.com/google/uuid"

// NewID generates a time-ordered UUIDv7 identifier. Backends rely on the
// time ordering to keep ID sort equal to insertion order; the v4 fallback
// only fires when the random source fails, which sacrifices ordering but
// never uniqueness.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
