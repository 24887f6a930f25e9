package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havelihousing/backoffice/config"
	"github.com/havelihousing/backoffice/store/memory"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("SECRET_KEY", "")
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSeedCommand(t *testing.T) {
	out, err := run(t, "seed", "--store", "memory")
	require.NoError(t, err)
	assert.Contains(t, out, "users=2 properties=5 employees=1 bookings=1 skipped=0")
}

func TestMigrateCommand(t *testing.T) {
	_, err := run(t, "migrate", "--store", "memory")
	require.NoError(t, err)
}

func TestSecretRequiredOutsideMemory(t *testing.T) {
	_, err := run(t, "migrate", "--store", "sqlite")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SECRET_KEY is required")
}

func TestUnknownStore(t *testing.T) {
	_, err := run(t, "migrate", "--store", "cassandra")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown STORE_DRIVER "cassandra"`)
}

func TestNewLogger(t *testing.T) {
	cfg := config.DefaultConfig()

	var buf bytes.Buffer
	logger, err := newLogger(cfg, &buf)
	require.NoError(t, err)
	logger.Debug("hidden")
	logger.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	cfg.LogFormat = "text"
	buf.Reset()
	logger, err = newLogger(cfg, &buf)
	require.NoError(t, err)
	logger.Info("shown")
	assert.Contains(t, buf.String(), "msg=shown")

	cfg.LogFormat = "xml"
	_, err = newLogger(cfg, &buf)
	require.Error(t, err)
}

func TestBuildEngine(t *testing.T) {
	ctx := context.Background()
	cfg := config.DefaultConfig()
	cfg.StoreDriver = config.DriverMemory
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	engine, reg, err := buildEngine(ctx, cfg, logger)
	require.NoError(t, err)
	require.NotNil(t, reg)
	assert.Len(t, engine.Plugins().Plugins(), 2)

	cfg.MetricsEnabled = false
	engine, reg, err = buildEngine(ctx, cfg, logger)
	require.NoError(t, err)
	assert.Nil(t, reg)
	assert.Len(t, engine.Plugins().Plugins(), 1)

	s, err := openStore(ctx, cfg, logger)
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, s)
}
