package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openledger/generator/internal/generator"
)

func TestLoadDefaultsMatchGeneratorDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, "openledger.db", cfg.Warehouse.DBPath)
	assert.Equal(t, "8080", cfg.Server.Port)

	p, err := cfg.Params()
	require.NoError(t, err)
	want := generator.DefaultParams()
	assert.Equal(t, want.Seed, p.Seed)
	assert.Equal(t, want.Start, p.Start)
	assert.Equal(t, want.Transactions.Volume, p.Transactions.Volume)
	assert.Equal(t, want.Transactions.Defects, p.Transactions.Defects)
	assert.Equal(t, want.Settlements.Defects, p.Settlements.Defects)
	assert.True(t, want.Transactions.MinAmount.Equal(p.Transactions.MinAmount))
	assert.True(t, want.Transactions.MaxAmount.Equal(p.Transactions.MaxAmount))
	assert.NoError(t, p.Validate())
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv(EnvSeed, "7")
	t.Setenv(EnvStartDate, "2025-02-10")
	t.Setenv(EnvDays, "3")
	t.Setenv(EnvWorkers, "2")
	t.Setenv(EnvDBPath, "/tmp/x.db")
	t.Setenv("OPENLEDGER_DEFECT_ORPHAN", "0.05")

	cfg, err := Load()
	require.NoError(t, err)

	p, err := cfg.Params()
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.Seed)
	assert.Equal(t, time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, 3, p.Days)
	assert.Equal(t, 2, p.Workers)
	assert.Equal(t, 0.05, p.Settlements.Defects.Orphan)
	assert.Equal(t, "/tmp/x.db", cfg.Warehouse.DBPath)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"start date", EnvStartDate, "01/02/2025"},
		{"days", EnvDays, "thirty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestParamsRejectsBadAmount(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	cfg.Generator.MaxAmount = "lots"
	_, err = cfg.Params()
	assert.Error(t, err)
}
