package types

import (
	"fmt"
	"unicode/utf8"
)

// CriterionDescriptionMax is the length limit for criterion descriptions.
const CriterionDescriptionMax = 500

// SuccessCriterion is a boolean checklist item scoped to one goal.
type SuccessCriterion struct {
	ID          string `json:"id"`
	GoalID      string `json:"goal_id"`
	Description string `json:"beschrijving"`
	Done        bool   `json:"voltooid"`
}

// Validate checks all format and range rules on the criterion and returns a
// *ValidationError listing every violated rule, or nil when valid.
func (c *SuccessCriterion) Validate() error {
	var violations []string
	if n := utf8.RuneCountInString(c.Description); n < 1 || n > CriterionDescriptionMax {
		violations = append(violations, fmt.Sprintf("beschrijving must be 1-%d characters", CriterionDescriptionMax))
	}
	return NewValidationError(violations)
}

// CriterionUpdate carries a partial update for a criterion. Nil fields are
// left unchanged.
type CriterionUpdate struct {
	Description *string
	Done        *bool
}

// Apply overlays the update onto c.
func (u CriterionUpdate) Apply(c *SuccessCriterion) {
	if u.Description != nil {
		c.Description = *u.Description
	}
	if u.Done != nil {
		c.Done = *u.Done
	}
}
