package config

import "time"

// Config is the root configuration for syncx-bench.
type Config struct {
	Bench   BenchSection   `koanf:"bench" json:"bench" yaml:"bench"`
	Bridge  BridgeSection  `koanf:"bridge" json:"bridge" yaml:"bridge"`
	Map     MapSection     `koanf:"map" json:"map" yaml:"map"`
	Queue   QueueSection   `koanf:"queue" json:"queue" yaml:"queue"`
	Storage StorageSection `koanf:"storage" json:"storage" yaml:"storage"`
	Metrics MetricsSection `koanf:"metrics" json:"metrics" yaml:"metrics"`
	Log     LogSection     `koanf:"log" json:"log" yaml:"log"`
}

// BenchSection configures workload shape.
type BenchSection struct {
	// Workers is the number of concurrent host threads.
	Workers int `koanf:"workers" json:"workers" yaml:"workers"`

	// Ops is the number of operations each worker performs.
	Ops int `koanf:"ops" json:"ops" yaml:"ops"`

	// Rate caps total operations per second. Zero means unlimited.
	Rate float64 `koanf:"rate" json:"rate" yaml:"rate"`

	// Burst is the token bucket size used with Rate.
	Burst int `koanf:"burst" json:"burst" yaml:"burst"`

	// AcquireTimeout bounds every blocking acquire or put/get. Negative
	// waits forever.
	AcquireTimeout time.Duration `koanf:"acquire_timeout" json:"acquire_timeout" yaml:"acquire_timeout"`

	// Fair releases locks with direct hand-off to the next waiter.
	Fair bool `koanf:"fair" json:"fair" yaml:"fair"`

	// SoakInterval is the pause between soak rounds.
	SoakInterval time.Duration `koanf:"soak_interval" json:"soak_interval" yaml:"soak_interval"`
}

// BridgeSection configures the host runtime the workers attach to.
type BridgeSection struct {
	// Mode is "serialized" (one global lock) or "free" (free-threaded).
	Mode string `koanf:"mode" json:"mode" yaml:"mode"`
}

// MapSection configures the concurrent map workload.
type MapSection struct {
	Shards int `koanf:"shards" json:"shards" yaml:"shards"`
	Keys   int `koanf:"keys" json:"keys" yaml:"keys"`
}

// QueueSection configures the queue workload.
type QueueSection struct {
	// MaxSize bounds the queue. Zero means unbounded.
	MaxSize int `koanf:"max_size" json:"max_size" yaml:"max_size"`
}

// StorageSection configures where run results and map snapshots are kept.
type StorageSection struct {
	DataDir string `koanf:"data_dir" json:"data_dir" yaml:"data_dir"`
	Keep    int    `koanf:"keep" json:"keep" yaml:"keep"`

	// Passphrase, when set, encrypts snapshot payloads at rest.
	Passphrase string `koanf:"passphrase" json:"passphrase" yaml:"passphrase"`
}

// MetricsSection configures the Prometheus endpoint served during soak runs.
type MetricsSection struct {
	Enabled    bool   `koanf:"enabled" json:"enabled" yaml:"enabled"`
	ListenAddr string `koanf:"listen_addr" json:"listen_addr" yaml:"listen_addr"`
	// AuthToken, when set, is required as a bearer token on /metrics.
	AuthToken string `koanf:"auth_token" json:"auth_token" yaml:"auth_token"`

	// TLSCertFile and TLSKeyFile switch the endpoint to HTTPS. Both files
	// are reloaded when they change.
	TLSCertFile string `koanf:"tls_cert_file" json:"tls_cert_file" yaml:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file" json:"tls_key_file" yaml:"tls_key_file"`
	// ClientCAFile, when set, requires client certificates signed by it.
	ClientCAFile string `koanf:"client_ca_file" json:"client_ca_file" yaml:"client_ca_file"`
}

// LogSection configures logging.
type LogSection struct {
	Level   string `koanf:"level" json:"level" yaml:"level"`
	Format  string `koanf:"format" json:"format" yaml:"format"`
	Backend string `koanf:"backend" json:"backend" yaml:"backend"`
}
