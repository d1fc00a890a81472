package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/syncx-go/internal/infra/confloader"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Bench.Workers != DefaultWorkers {
		t.Errorf("Bench.Workers = %d, want %d", cfg.Bench.Workers, DefaultWorkers)
	}
	if cfg.Bench.AcquireTimeout != DefaultAcquireTimeout {
		t.Errorf("Bench.AcquireTimeout = %v, want %v", cfg.Bench.AcquireTimeout, DefaultAcquireTimeout)
	}
	if cfg.Bridge.Mode != BridgeSerialized {
		t.Errorf("Bridge.Mode = %q, want %q", cfg.Bridge.Mode, BridgeSerialized)
	}
	if cfg.Map.Shards != DefaultMapShards {
		t.Errorf("Map.Shards = %d, want %d", cfg.Map.Shards, DefaultMapShards)
	}
	if cfg.Storage.DataDir != DefaultDataDir {
		t.Errorf("Storage.DataDir = %q, want %q", cfg.Storage.DataDir, DefaultDataDir)
	}
	if cfg.Metrics.Enabled {
		t.Error("Metrics should be disabled by default")
	}
	if cfg.Log.Level != DefaultLogLevel {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, DefaultLogLevel)
	}
	if err := Verify(cfg); err != nil {
		t.Errorf("Verify(Default()) = %v", err)
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"zero workers", func(c *Config) { c.Bench.Workers = 0 }, "bench.workers"},
		{"zero ops", func(c *Config) { c.Bench.Ops = 0 }, "bench.ops"},
		{"negative rate", func(c *Config) { c.Bench.Rate = -1 }, "bench.rate"},
		{"rate without burst", func(c *Config) { c.Bench.Rate = 10; c.Bench.Burst = 0 }, "bench.burst"},
		{"unknown bridge", func(c *Config) { c.Bridge.Mode = "gil" }, "bridge.mode"},
		{"shards not power of two", func(c *Config) { c.Map.Shards = 12 }, "map.shards"},
		{"negative queue size", func(c *Config) { c.Queue.MaxSize = -1 }, "queue.max_size"},
		{"no data dir", func(c *Config) { c.Storage.DataDir = "" }, "storage.data_dir"},
		{"keep zero", func(c *Config) { c.Storage.Keep = 0 }, "storage.keep"},
		{"short passphrase", func(c *Config) { c.Storage.Passphrase = "short" }, "storage.passphrase"},
		{"bad metrics addr", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.ListenAddr = "nope" }, "metrics.listen_addr"},
		{"cert without key", func(c *Config) { c.Metrics.TLSCertFile = "server.crt" }, "metrics.tls_key_file"},
		{"client ca without cert", func(c *Config) { c.Metrics.ClientCAFile = "ca.pem" }, "metrics.client_ca_file"},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
		{"bad log backend", func(c *Config) { c.Log.Backend = "logrus" }, "log.backend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Verify(cfg)
			if err == nil {
				t.Fatal("Verify() should fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Verify() = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestVerify_ReportsAll(t *testing.T) {
	cfg := Default()
	cfg.Bench.Workers = 0
	cfg.Bridge.Mode = "x"

	err := Verify(cfg)
	if err == nil || !strings.Contains(err.Error(), "bench.workers") || !strings.Contains(err.Error(), "bridge.mode") {
		t.Errorf("Verify() = %v, want both problems", err)
	}
}

func TestSanitize(t *testing.T) {
	cfg := Default()
	cfg.Metrics.AuthToken = "super-secret-token-1234567890"

	sanitized := Sanitize(cfg)
	if cfg.Metrics.AuthToken != "super-secret-token-1234567890" {
		t.Error("Original config should not be modified")
	}
	if sanitized.Metrics.AuthToken == cfg.Metrics.AuthToken {
		t.Error("Sanitized config should mask the token")
	}
	if len(sanitized.Metrics.AuthToken) != len(cfg.Metrics.AuthToken) {
		t.Errorf("Masked token length = %d, want %d", len(sanitized.Metrics.AuthToken), len(cfg.Metrics.AuthToken))
	}
	if !strings.HasPrefix(sanitized.Metrics.AuthToken, "su") || !strings.HasSuffix(sanitized.Metrics.AuthToken, "90") {
		t.Errorf("Masked token = %q, want first and last two characters kept", sanitized.Metrics.AuthToken)
	}
}

func TestSanitize_Passphrase(t *testing.T) {
	cfg := Default()
	cfg.Storage.Passphrase = "correct horse"
	if got := Sanitize(cfg).Storage.Passphrase; got != "co*********se" {
		t.Errorf("passphrase masked as %q", got)
	}
}

func TestSanitize_ShortAndEmpty(t *testing.T) {
	cfg := Default()
	if Sanitize(cfg).Metrics.AuthToken != "" {
		t.Error("empty token should stay empty")
	}
	cfg.Metrics.AuthToken = "abc"
	if got := Sanitize(cfg).Metrics.AuthToken; got != "****" {
		t.Errorf("short token masked as %q, want ****", got)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "syncx.yaml")
	content := `
bench:
  workers: 4
  acquire_timeout: 250ms
bridge:
  mode: free
map:
  shards: 32
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SYNCX_QUEUE__MAX_SIZE", "7")

	cfg, err := Load(confloader.NewLoader(confloader.WithConfigFile(path)))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Bench.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Bench.Workers)
	}
	if cfg.Bench.AcquireTimeout != 250*time.Millisecond {
		t.Errorf("AcquireTimeout = %v, want 250ms", cfg.Bench.AcquireTimeout)
	}
	if cfg.Bench.Ops != DefaultOps {
		t.Errorf("Ops = %d, want default %d", cfg.Bench.Ops, DefaultOps)
	}
	if cfg.Queue.MaxSize != 7 {
		t.Errorf("Queue.MaxSize = %d, want 7 from env", cfg.Queue.MaxSize)
	}
	if cfg.Runtime().Serialized() {
		t.Error("bridge.mode free should give a free-threaded runtime")
	}
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "syncx.yaml")
	if err := os.WriteFile(path, []byte("map:\n  shards: 3\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(confloader.NewLoader(confloader.WithConfigFile(path))); err == nil {
		t.Error("Load() should reject invalid shard count")
	}
}

func TestRuntime(t *testing.T) {
	cfg := Default()
	if !cfg.Runtime().Serialized() {
		t.Error("default runtime should be serialized")
	}
}
