// Package config loads process configuration from a YAML or JSON file,
// then applies TENDRIL_* environment overrides.
package config

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no path is given and it exists.
const DefaultPath = "tendril.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TENDRIL_"

// State backends.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config is the process configuration.
type Config struct {
	LogLevel string `yaml:"log_level" json:"log_level"`

	// Graphs is the directory of graph assets.
	Graphs string `yaml:"graphs" json:"graphs"`
	// Loam loads graphs from a Loam repository with hot reload instead of a plain directory.
	Loam bool `yaml:"loam" json:"loam"`

	// Tools is a tools.yaml allow-listing commands for process.run nodes.
	Tools string `yaml:"tools" json:"tools"`

	Tick       Duration `yaml:"tick" json:"tick"`
	Checkpoint Duration `yaml:"checkpoint" json:"checkpoint"`

	HTTP     HTTPConfig     `yaml:"http" json:"http"`
	State    StateConfig    `yaml:"state" json:"state"`
	Redis    RedisConfig    `yaml:"redis" json:"redis"`
	Postgres PostgresConfig `yaml:"postgres" json:"postgres"`
	MQTT     MQTTConfig     `yaml:"mqtt" json:"mqtt"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

type StateConfig struct {
	Backend string `yaml:"backend" json:"backend"`
	// Dir is the directory of the file backend.
	Dir string `yaml:"dir" json:"dir"`
	// Lock guards checkpoints with a Redis lock when several processes share a store.
	Lock bool `yaml:"lock" json:"lock"`
	// Key is a base64 AES-256 key; when set, saved state is encrypted.
	Key string `yaml:"key" json:"key"`
	// FallbackKeys decrypt state saved under earlier keys.
	FallbackKeys []string `yaml:"fallback_keys" json:"fallback_keys"`
	// Exclude lists instance id patterns whose state is never saved.
	Exclude []string `yaml:"exclude" json:"exclude"`
}

// Keys decodes the encryption keys. Active is nil when encryption is off.
func (s StateConfig) Keys() (active []byte, fallback [][]byte, err error) {
	if s.Key == "" {
		return nil, nil, nil
	}
	if active, err = base64.StdEncoding.DecodeString(s.Key); err != nil {
		return nil, nil, fmt.Errorf("state.key: %w", err)
	}
	for i, k := range s.FallbackKeys {
		b, err := base64.StdEncoding.DecodeString(k)
		if err != nil {
			return nil, nil, fmt.Errorf("state.fallback_keys[%d]: %w", i, err)
		}
		fallback = append(fallback, b)
	}
	return active, fallback, nil
}

type RedisConfig struct {
	Addr     string   `yaml:"addr" json:"addr"`
	Password string   `yaml:"password" json:"password"`
	DB       int      `yaml:"db" json:"db"`
	Prefix   string   `yaml:"prefix" json:"prefix"`
	TTL      Duration `yaml:"ttl" json:"ttl"`
	// Host stores the host world in Redis instead of memory.
	Host bool `yaml:"host" json:"host"`
}

type PostgresConfig struct {
	DSN   string `yaml:"dsn" json:"dsn"`
	Table string `yaml:"table" json:"table"`
}

type MQTTConfig struct {
	Broker   string `yaml:"broker" json:"broker"`
	ClientID string `yaml:"client_id" json:"client_id"`
	Prefix   string `yaml:"prefix" json:"prefix"`
}

// Duration reads "250ms" style strings from YAML and JSON.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(v)
	return nil
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (any, error) { return time.Duration(d).String(), nil }

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		LogLevel: "info",
		Graphs:   ".",
		Tick:     Duration(100 * time.Millisecond),
		HTTP:     HTTPConfig{Addr: ":8080"},
		State:    StateConfig{Backend: BackendMemory, Dir: ".tendril/state"},
		Redis:    RedisConfig{Addr: "localhost:6379", Prefix: "tendril:"},
		Postgres: PostgresConfig{Table: "tendril_node_state"},
		MQTT:     MQTTConfig{ClientID: "tendril", Prefix: "tendril"},
	}
}

// Load reads path over the defaults and applies the environment. An empty
// path reads DefaultPath when it exists.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(path, data, &cfg); err != nil {
			return Config{}, err
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func decode(path string, data []byte, cfg *Config) error {
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from TENDRIL_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"LOG_LEVEL":      &c.LogLevel,
		"GRAPHS":         &c.Graphs,
		"TOOLS":          &c.Tools,
		"HTTP_ADDR":      &c.HTTP.Addr,
		"STATE_BACKEND":  &c.State.Backend,
		"STATE_DIR":      &c.State.Dir,
		"STATE_KEY":      &c.State.Key,
		"REDIS_ADDR":     &c.Redis.Addr,
		"REDIS_PASSWORD": &c.Redis.Password,
		"REDIS_PREFIX":   &c.Redis.Prefix,
		"POSTGRES_DSN":   &c.Postgres.DSN,
		"POSTGRES_TABLE": &c.Postgres.Table,
		"MQTT_BROKER":    &c.MQTT.Broker,
		"MQTT_CLIENT_ID": &c.MQTT.ClientID,
		"MQTT_PREFIX":    &c.MQTT.Prefix,
	}
	for key, field := range str {
		if v, ok := lookup(EnvPrefix + key); ok {
			*field = v
		}
	}

	durations := map[string]*Duration{
		"TICK":       &c.Tick,
		"CHECKPOINT": &c.Checkpoint,
		"REDIS_TTL":  &c.Redis.TTL,
	}
	for key, field := range durations {
		if v, ok := lookup(EnvPrefix + key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
			*field = Duration(d)
		}
	}

	bools := map[string]*bool{
		"LOAM":       &c.Loam,
		"STATE_LOCK": &c.State.Lock,
		"REDIS_HOST": &c.Redis.Host,
	}
	for key, field := range bools {
		if v, ok := lookup(EnvPrefix + key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
			*field = b
		}
	}

	if v, ok := lookup(EnvPrefix + "REDIS_DB"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sREDIS_DB: %w", EnvPrefix, err)
		}
		c.Redis.DB = n
	}
	return nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch c.State.Backend {
	case BackendMemory, BackendFile, BackendRedis:
	case BackendPostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("config: postgres backend requires postgres.dsn")
		}
	default:
		return fmt.Errorf("config: unknown state backend %q", c.State.Backend)
	}
	if c.Tick <= 0 {
		return fmt.Errorf("config: tick must be positive")
	}
	if _, _, err := c.State.Keys(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
