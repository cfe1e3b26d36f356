package types

// Sprint is a fixed-date work cycle, nominally fourteen days, that owns goals.
// Identity is immutable once created; dates and sequence number may change.
// The JSON tags are the wire format (see pkg/transfer).
type Sprint struct {
	ID             string `json:"id"`
	SequenceNumber int    `json:"volgnummer"`
	StartDate      string `json:"startdatum"`
	EndDate        string `json:"einddatum"`
}

// Validate checks all format and range rules on the sprint and returns a
// *ValidationError listing every violated rule, or nil when valid.
func (s *Sprint) Validate() error {
	var violations []string
	if s.SequenceNumber < 1 {
		violations = append(violations, "volgnummer must be a positive integer")
	}
	startOK := ValidDate(s.StartDate)
	if !startOK {
		violations = append(violations, "startdatum must be a valid YYYY-MM-DD date")
	}
	endOK := ValidDate(s.EndDate)
	if !endOK {
		violations = append(violations, "einddatum must be a valid YYYY-MM-DD date")
	}
	if startOK && endOK && s.EndDate <= s.StartDate {
		violations = append(violations, "einddatum must be after startdatum")
	}
	return NewValidationError(violations)
}

// SprintUpdate carries a partial update for a sprint. Nil fields are left
// unchanged.
type SprintUpdate struct {
	SequenceNumber *int
	StartDate      *string
	EndDate        *string
}

// Apply overlays the update onto s.
func (u SprintUpdate) Apply(s *Sprint) {
	if u.SequenceNumber != nil {
		s.SequenceNumber = *u.SequenceNumber
	}
	if u.StartDate != nil {
		s.StartDate = *u.StartDate
	}
	if u.EndDate != nil {
		s.EndDate = *u.EndDate
	}
}

// Contains reports whether date falls within the sprint's inclusive range.
// Dates compare lexicographically, which is chronological for this format.
func (s *Sprint) Contains(date string) bool {
	return s.StartDate <= date && date <= s.EndDate
}
