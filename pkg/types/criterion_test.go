package types

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCriterionValidate(t *testing.T) {
	tests := []struct {
		name        string
		description string
		wantErr     bool
	}{
		{name: "valid", description: "unit tests pass"},
		{name: "single character", description: "x"},
		{name: "at limit", description: strings.Repeat("c", 500)},
		{name: "empty", description: "", wantErr: true},
		{name: "too long", description: strings.Repeat("c", 501), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := SuccessCriterion{Description: tt.description}
			err := c.Validate()
			if tt.wantErr {
				var verr *ValidationError
				assert.ErrorAs(t, err, &verr)
				assert.Equal(t, []string{"beschrijving must be 1-500 characters"}, verr.Violations)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCriterionUpdateApply(t *testing.T) {
	c := SuccessCriterion{ID: "x", GoalID: "y", Description: "old", Done: false}
	done := true

	CriterionUpdate{Done: &done}.Apply(&c)

	assert.True(t, c.Done)
	assert.Equal(t, "old", c.Description, "unset field stays unchanged")
}
