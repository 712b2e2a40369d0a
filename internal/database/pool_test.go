package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPoolConfig(t *testing.T) {
	cfg := DefaultPoolConfig("postgres://u:p@localhost:5432/facegate")

	assert.Equal(t, int32(10), cfg.MaxConns)
	assert.Equal(t, int32(2), cfg.MinConns)
	assert.Equal(t, 30*time.Minute, cfg.ConnMaxLifetime)
	assert.Equal(t, 5*time.Minute, cfg.ConnMaxIdleTime)
}

func TestDatabaseName(t *testing.T) {
	name, err := DatabaseName("postgres://u:p@localhost:5432/facegate?sslmode=disable")
	require.NoError(t, err)
	assert.Equal(t, "facegate", name)

	_, err = DatabaseName("postgres://localhost:99999999/facegate")
	assert.Error(t, err)
}
