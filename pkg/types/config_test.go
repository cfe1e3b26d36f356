package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{name: "sqlite backend", config: Config{Backend: BackendSQLite, DataDir: "/tmp/x"}},
		{name: "bolt backend", config: Config{Backend: BackendBolt, DataDir: "/tmp/x"}},
		{name: "memory backend", config: Config{Backend: BackendMemory}},
		{name: "empty backend", config: Config{DataDir: "/tmp/x"}, wantErr: ErrBackendEmpty},
		{name: "unknown backend", config: Config{Backend: "cassandra"}, wantErr: ErrBackendUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNotFoundErrorMatchesSentinel(t *testing.T) {
	err := &NotFoundError{Kind: "sprint", ID: "abc"}
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "sprint abc not found", err.Error())
}
