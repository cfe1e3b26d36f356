package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriStateJSON(t *testing.T) {
	tests := []struct {
		name  string
		value TriState
		wire  string
	}{
		{name: "unset marshals to null", value: TriUnset, wire: "null"},
		{name: "true marshals to true", value: TriTrue, wire: "true"},
		{name: "false marshals to false", value: TriFalse, wire: "false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.wire, string(data))

			var back TriState
			require.NoError(t, json.Unmarshal(data, &back))
			assert.Equal(t, tt.value, back)
		})
	}

	var ts TriState
	assert.Error(t, json.Unmarshal([]byte(`"yes"`), &ts))
	assert.Error(t, json.Unmarshal([]byte(`1`), &ts))
}

func TestTriStateBoolConversion(t *testing.T) {
	assert.Nil(t, TriUnset.Bool())
	require.NotNil(t, TriTrue.Bool())
	assert.True(t, *TriTrue.Bool())
	require.NotNil(t, TriFalse.Bool())
	assert.False(t, *TriFalse.Bool())

	yes, no := true, false
	assert.Equal(t, TriUnset, TriFromBool(nil))
	assert.Equal(t, TriTrue, TriFromBool(&yes))
	assert.Equal(t, TriFalse, TriFromBool(&no))
}

func TestTriStateIsValid(t *testing.T) {
	assert.True(t, TriUnset.IsValid())
	assert.True(t, TriTrue.IsValid())
	assert.True(t, TriFalse.IsValid())
	assert.False(t, TriState(7).IsValid())
}
