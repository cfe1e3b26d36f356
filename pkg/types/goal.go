package types

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// Field length limits for goals.
const (
	GoalTitleMax       = 200
	GoalDescriptionMax = 2000
	GoalOwnerMax       = 50
	GoalNoteMax        = 2000
)

// Goal is an objective scoped to one sprint, with estimated and actual effort
// and a tri-state achieved flag. UpdatedAt is re-stamped on every field
// mutation, including convenience mutations.
type Goal struct {
	ID             string    `json:"id"`
	SprintID       string    `json:"sprint_id"`
	Title          string    `json:"titel"`
	Description    string    `json:"beschrijving"`
	Owner          string    `json:"eigenaar"`
	EstimatedHours float64   `json:"geschatte_uren"`
	ActualHours    *float64  `json:"werkelijke_uren"`
	Achieved       TriState  `json:"behaald"`
	CompletionNote *string   `json:"toelichting"`
	LessonsLearned *string   `json:"geleerde_lessen"`
	CreatedAt      time.Time `json:"aangemaakt_op"`
	UpdatedAt      time.Time `json:"gewijzigd_op"`
}

// Validate checks all format and range rules on the goal and returns a
// *ValidationError listing every violated rule, or nil when valid.
func (g *Goal) Validate() error {
	var violations []string
	if n := utf8.RuneCountInString(g.Title); n < 1 || n > GoalTitleMax {
		violations = append(violations, fmt.Sprintf("titel must be 1-%d characters", GoalTitleMax))
	}
	if utf8.RuneCountInString(g.Description) > GoalDescriptionMax {
		violations = append(violations, fmt.Sprintf("beschrijving must be at most %d characters", GoalDescriptionMax))
	}
	if n := utf8.RuneCountInString(g.Owner); n < 1 || n > GoalOwnerMax {
		violations = append(violations, fmt.Sprintf("eigenaar must be 1-%d characters", GoalOwnerMax))
	}
	if !ValidHours(g.EstimatedHours) {
		violations = append(violations, "geschatte_uren must be non-negative in 0.25 increments")
	}
	if g.ActualHours != nil && !ValidHours(*g.ActualHours) {
		violations = append(violations, "werkelijke_uren must be non-negative in 0.25 increments")
	}
	if !g.Achieved.IsValid() {
		violations = append(violations, "behaald must be unset, true, or false")
	}
	if g.CompletionNote != nil && utf8.RuneCountInString(*g.CompletionNote) > GoalNoteMax {
		violations = append(violations, fmt.Sprintf("toelichting must be at most %d characters", GoalNoteMax))
	}
	if g.LessonsLearned != nil && utf8.RuneCountInString(*g.LessonsLearned) > GoalNoteMax {
		violations = append(violations, fmt.Sprintf("geleerde_lessen must be at most %d characters", GoalNoteMax))
	}
	return NewValidationError(violations)
}

// GoalUpdate carries a partial update for a goal. Nil fields are left
// unchanged; UpdatedAt is always written and is supplied by the service layer.
type GoalUpdate struct {
	Title          *string
	Description    *string
	Owner          *string
	EstimatedHours *float64
	ActualHours    *float64
	Achieved       *TriState
	CompletionNote *string
	LessonsLearned *string
	UpdatedAt      time.Time
}

// Apply overlays the update onto g, including the modification timestamp.
func (u GoalUpdate) Apply(g *Goal) {
	if u.Title != nil {
		g.Title = *u.Title
	}
	if u.Description != nil {
		g.Description = *u.Description
	}
	if u.Owner != nil {
		g.Owner = *u.Owner
	}
	if u.EstimatedHours != nil {
		g.EstimatedHours = *u.EstimatedHours
	}
	if u.ActualHours != nil {
		v := *u.ActualHours
		g.ActualHours = &v
	}
	if u.Achieved != nil {
		g.Achieved = *u.Achieved
	}
	if u.CompletionNote != nil {
		v := *u.CompletionNote
		g.CompletionNote = &v
	}
	if u.LessonsLearned != nil {
		v := *u.LessonsLearned
		g.LessonsLearned = &v
	}
	g.UpdatedAt = u.UpdatedAt
}
