package types

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the calendar-date format used for sprint boundaries. The
// fixed-width form makes lexicographic comparison equal to chronological
// comparison, which both backends rely on for range queries.
const DateLayout = "2006-01-02"

// ValidID reports whether id has the shape of a generated entity identifier.
func ValidID(id string) bool {
	if id == "" {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// ValidDate reports whether s is a well-formed YYYY-MM-DD calendar date.
func ValidDate(s string) bool {
	if len(s) != len(DateLayout) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// ValidHours reports whether v is a non-negative hour count quantized to
// quarter-hour steps: (v*4) mod 1 == 0.
func ValidHours(v float64) bool {
	if v < 0 {
		return false
	}
	q := v * 4
	return q == math.Trunc(q) && !math.IsInf(q, 0)
}
