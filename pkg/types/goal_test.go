package types

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validGoal() Goal {
	now := time.Now().UTC()
	return Goal{
		ID:             "3c0f9ab2-1111-7abc-8def-000000000001",
		SprintID:       "3c0f9ab2-1111-7abc-8def-000000000002",
		Title:          "Ship X",
		Owner:          "Jan",
		EstimatedHours: 8,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestGoalValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Goal)
		wantErr []string
	}{
		{
			name:   "valid goal",
			mutate: func(g *Goal) {},
		},
		{
			name:    "empty title",
			mutate:  func(g *Goal) { g.Title = "" },
			wantErr: []string{"titel must be 1-200 characters"},
		},
		{
			name:    "title too long",
			mutate:  func(g *Goal) { g.Title = strings.Repeat("a", 201) },
			wantErr: []string{"titel must be 1-200 characters"},
		},
		{
			name:   "title at limit",
			mutate: func(g *Goal) { g.Title = strings.Repeat("a", 200) },
		},
		{
			name:    "description too long",
			mutate:  func(g *Goal) { g.Description = strings.Repeat("b", 2001) },
			wantErr: []string{"beschrijving must be at most 2000 characters"},
		},
		{
			name:    "empty owner",
			mutate:  func(g *Goal) { g.Owner = "" },
			wantErr: []string{"eigenaar must be 1-50 characters"},
		},
		{
			name:    "owner too long",
			mutate:  func(g *Goal) { g.Owner = strings.Repeat("o", 51) },
			wantErr: []string{"eigenaar must be 1-50 characters"},
		},
		{
			name:    "negative estimated hours",
			mutate:  func(g *Goal) { g.EstimatedHours = -0.25 },
			wantErr: []string{"geschatte_uren must be non-negative in 0.25 increments"},
		},
		{
			name:    "unquantized estimated hours",
			mutate:  func(g *Goal) { g.EstimatedHours = 8.1 },
			wantErr: []string{"geschatte_uren must be non-negative in 0.25 increments"},
		},
		{
			name: "unquantized actual hours",
			mutate: func(g *Goal) {
				v := 3.3
				g.ActualHours = &v
			},
			wantErr: []string{"werkelijke_uren must be non-negative in 0.25 increments"},
		},
		{
			name: "valid actual hours",
			mutate: func(g *Goal) {
				v := 3.75
				g.ActualHours = &v
			},
		},
		{
			name: "completion note too long",
			mutate: func(g *Goal) {
				v := strings.Repeat("n", 2001)
				g.CompletionNote = &v
			},
			wantErr: []string{"toelichting must be at most 2000 characters"},
		},
		{
			name: "lessons learned too long",
			mutate: func(g *Goal) {
				v := strings.Repeat("l", 2001)
				g.LessonsLearned = &v
			},
			wantErr: []string{"geleerde_lessen must be at most 2000 characters"},
		},
		{
			name: "multiple violations collected",
			mutate: func(g *Goal) {
				g.Title = ""
				g.Owner = ""
				g.EstimatedHours = -1
			},
			wantErr: []string{
				"titel must be 1-200 characters",
				"eigenaar must be 1-50 characters",
				"geschatte_uren must be non-negative in 0.25 increments",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := validGoal()
			tt.mutate(&g)
			err := g.Validate()
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantErr, verr.Violations)
		})
	}
}

func TestValidHoursQuantization(t *testing.T) {
	valid := []float64{0, 0.25, 0.5, 0.75, 1, 2.25, 8, 37.75, 100.5}
	for _, v := range valid {
		assert.True(t, ValidHours(v), "expected %v to be valid", v)
	}

	invalid := []float64{-0.25, -1, 0.1, 0.26, 0.3, 1.01, 8.1, 3.33, 7.99}
	for _, v := range invalid {
		assert.False(t, ValidHours(v), "expected %v to be invalid", v)
	}
}

func TestGoalUpdateApply(t *testing.T) {
	g := validGoal()
	title := "Ship Y"
	hours := 2.5
	ach := TriTrue
	stamp := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	GoalUpdate{Title: &title, ActualHours: &hours, Achieved: &ach, UpdatedAt: stamp}.Apply(&g)

	assert.Equal(t, "Ship Y", g.Title)
	assert.NotNil(t, g.ActualHours)
	assert.Equal(t, 2.5, *g.ActualHours)
	assert.Equal(t, TriTrue, g.Achieved)
	assert.Equal(t, stamp, g.UpdatedAt)
	assert.Equal(t, "Jan", g.Owner, "unset field stays unchanged")
}
