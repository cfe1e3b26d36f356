package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSprintValidate(t *testing.T) {
	tests := []struct {
		name       string
		sprint     Sprint
		violations []string
	}{
		{
			name:   "valid sprint",
			sprint: Sprint{SequenceNumber: 1, StartDate: "2026-01-13", EndDate: "2026-01-26"},
		},
		{
			name:       "zero sequence number",
			sprint:     Sprint{SequenceNumber: 0, StartDate: "2026-01-13", EndDate: "2026-01-26"},
			violations: []string{"volgnummer must be a positive integer"},
		},
		{
			name:       "negative sequence number",
			sprint:     Sprint{SequenceNumber: -3, StartDate: "2026-01-13", EndDate: "2026-01-26"},
			violations: []string{"volgnummer must be a positive integer"},
		},
		{
			name:       "malformed start date",
			sprint:     Sprint{SequenceNumber: 1, StartDate: "13-01-2026", EndDate: "2026-01-26"},
			violations: []string{"startdatum must be a valid YYYY-MM-DD date"},
		},
		{
			name:       "impossible calendar date",
			sprint:     Sprint{SequenceNumber: 1, StartDate: "2026-02-30", EndDate: "2026-03-10"},
			violations: []string{"startdatum must be a valid YYYY-MM-DD date"},
		},
		{
			name:       "end equals start",
			sprint:     Sprint{SequenceNumber: 1, StartDate: "2026-01-13", EndDate: "2026-01-13"},
			violations: []string{"einddatum must be after startdatum"},
		},
		{
			name:       "end before start",
			sprint:     Sprint{SequenceNumber: 1, StartDate: "2026-01-26", EndDate: "2026-01-13"},
			violations: []string{"einddatum must be after startdatum"},
		},
		{
			name:   "all rules violated at once",
			sprint: Sprint{SequenceNumber: 0, StartDate: "nope", EndDate: ""},
			violations: []string{
				"volgnummer must be a positive integer",
				"startdatum must be a valid YYYY-MM-DD date",
				"einddatum must be a valid YYYY-MM-DD date",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sprint.Validate()
			if len(tt.violations) == 0 {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.violations, verr.Violations)
		})
	}
}

func TestSprintContains(t *testing.T) {
	s := Sprint{SequenceNumber: 1, StartDate: "2026-01-13", EndDate: "2026-01-26"}

	assert.True(t, s.Contains("2026-01-13"))
	assert.True(t, s.Contains("2026-01-20"))
	assert.True(t, s.Contains("2026-01-26"))
	assert.False(t, s.Contains("2026-01-12"))
	assert.False(t, s.Contains("2026-01-27"))
}

func TestSprintUpdateApply(t *testing.T) {
	s := Sprint{ID: "x", SequenceNumber: 1, StartDate: "2026-01-13", EndDate: "2026-01-26"}
	seq := 2
	end := "2026-01-28"

	SprintUpdate{SequenceNumber: &seq, EndDate: &end}.Apply(&s)

	assert.Equal(t, 2, s.SequenceNumber)
	assert.Equal(t, "2026-01-13", s.StartDate, "unset field stays unchanged")
	assert.Equal(t, "2026-01-28", s.EndDate)
}
