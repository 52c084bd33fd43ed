package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/tendril/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoad_YAML(t *testing.T) {
	path := write(t, "tendril.yaml", `
log_level: debug
graphs: ./graphs
tick: 20ms
checkpoint: 1m
http:
  addr: ":9090"
state:
  backend: redis
redis:
  addr: redis:6379
  ttl: 1h
mqtt:
  broker: tcp://broker:1883
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "./graphs", cfg.Graphs)
	assert.Equal(t, 20*time.Millisecond, cfg.Tick.Std())
	assert.Equal(t, time.Minute, cfg.Checkpoint.Std())
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, config.BackendRedis, cfg.State.Backend)
	assert.Equal(t, ".tendril/state", cfg.State.Dir, "unset fields keep their default")
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "tendril:", cfg.Redis.Prefix)
	assert.Equal(t, time.Hour, cfg.Redis.TTL.Std())
	assert.Equal(t, "tcp://broker:1883", cfg.MQTT.Broker)
}

func TestLoad_JSON(t *testing.T) {
	path := write(t, "tendril.json", `{"tick": "5ms", "state": {"backend": "file", "dir": "/tmp/s"}}`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Millisecond, cfg.Tick.Std())
	assert.Equal(t, "/tmp/s", cfg.State.Dir)
}

func TestLoad_Env(t *testing.T) {
	path := write(t, "tendril.yaml", "log_level: debug\n")
	t.Setenv("TENDRIL_LOG_LEVEL", "warn")
	t.Setenv("TENDRIL_TICK", "1s")
	t.Setenv("TENDRIL_REDIS_DB", "3")
	t.Setenv("TENDRIL_LOAM", "true")
	t.Setenv("TENDRIL_STATE_BACKEND", "postgres")
	t.Setenv("TENDRIL_POSTGRES_DSN", "postgres://localhost/tendril")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, time.Second, cfg.Tick.Std())
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.True(t, cfg.Loam)
	assert.Equal(t, config.BackendPostgres, cfg.State.Backend)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  map[string]string
	}{
		{name: "bad yaml", file: "tick: [\n"},
		{name: "bad duration", file: "tick: soon\n"},
		{name: "unknown backend", file: "state:\n  backend: etcd\n"},
		{name: "postgres without dsn", file: "state:\n  backend: postgres\n"},
		{name: "zero tick", file: "tick: 0s\n"},
		{name: "bad env duration", file: "{}\n", env: map[string]string{"TENDRIL_TICK": "x"}},
		{name: "bad env bool", file: "{}\n", env: map[string]string{"TENDRIL_LOAM": "maybe"}},
		{name: "bad env int", file: "{}\n", env: map[string]string{"TENDRIL_REDIS_DB": "one"}},
		{name: "bad state key", file: "state:\n  key: \"not base64!\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.Load(write(t, "tendril.yaml", tt.file))
			assert.Error(t, err)
		})
	}

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err, "an explicit path must exist")
}

func TestStateKeys(t *testing.T) {
	var s config.StateConfig
	active, fallback, err := s.Keys()
	require.NoError(t, err)
	assert.Nil(t, active)
	assert.Nil(t, fallback)

	s.Key = "AAEC"
	s.FallbackKeys = []string{"AwQF"}
	active, fallback, err = s.Keys()
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2}, active)
	assert.Equal(t, [][]byte{{3, 4, 5}}, fallback)

	s.FallbackKeys = []string{"%%"}
	_, _, err = s.Keys()
	assert.ErrorContains(t, err, "fallback_keys[0]")
}
