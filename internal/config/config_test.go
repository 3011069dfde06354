package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/kos?sslmode=disable")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5, cfg.Router.HistoryLimit)
	assert.Equal(t, 3, cfg.Router.InvocationBudget)
	assert.Equal(t, 60*time.Second, cfg.Router.TurnTimeout)
	assert.Equal(t, 10*time.Second, cfg.Router.LockWait)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, "B6", cfg.Sheets.RoomCells["1"])
	assert.Equal(t, "H4", cfg.Sheets.RoomCells["4"])
	assert.False(t, cfg.SheetsEnabled())
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_RejectsNonPositiveBudget(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/kos")
	t.Setenv("INVOCATION_BUDGET", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVOCATION_BUDGET")
}
