package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fltvhs/recorder/internal/config"
	"github.com/fltvhs/recorder/internal/model"
)

func TestSaveBeforeInit(t *testing.T) {
	b := New(config.PostgresConfig{})
	err := b.SaveFlight(&model.Archive{})
	require.Error(t, err)
	assert.ErrorContains(t, err, "not initialized")
}

func TestCloseBeforeInit(t *testing.T) {
	b := New(config.PostgresConfig{})
	assert.NoError(t, b.Close())
}

func TestInitFailsWithoutServer(t *testing.T) {
	// No Postgres at this address; Init must fail cleanly instead of
	// leaving a half-built backend.
	b := New(config.PostgresConfig{
		Host: "127.0.0.1", Port: "1", Username: "u", Password: "p", Database: "d",
	})
	err := b.Init()
	require.Error(t, err)
	assert.Error(t, b.SaveFlight(&model.Archive{}))
}
