// Package config defines uuship's JSON5 configuration document: the host
// table that replaces Taylor UUCP's Systems/Permissions files, plus the
// spool layout and logging format selection the core components need.
package config

import "sync"

// Host is one entry in the host table — spec.md §3's "Host" data model
// entry, plus the call-time window supplemental feature (SPEC_FULL.md §2.5).
type Host struct {
	Name         string `json:"name"`
	SpoolDir     string `json:"spool_dir,omitempty"`      // default: <Spool.Root>/<Name>
	PublicDir    string `json:"public_dir"`                // anchor for ~ and ~/ expansion
	DefaultGrade string `json:"default_grade,omitempty"`   // single char; "" = Spool.DefaultGrade
	CallWindow   string `json:"call_window,omitempty"`     // cron expression, e.g. "0 8-18 * * *"
}

// SpoolConfig describes the on-disk spool layout shared by every host.
type SpoolConfig struct {
	Root         string `json:"root"`
	LockDir      string `json:"lock_dir"`
	DefaultGrade string `json:"default_grade"`
	// MinFreeBytes, when nonzero, is checked against the spool
	// filesystem's free space before staging an incoming file (SPEC_FULL
	// §4.4's free-space probe). Zero means "don't know" / don't check,
	// mirroring the original's -1 return for an unsupported filesystem.
	MinFreeBytes int64 `json:"min_free_bytes,omitempty"`
}

// LogFormat selects one of the three wire-exact event/statistics formats
// spec.md §4.F requires. Default() sets "taylor"; internal/logsink also
// writes the taylor layout for an empty or unrecognised value.
type LogFormat string

const (
	FormatTaylor LogFormat = "taylor"
	FormatV2     LogFormat = "v2"
	FormatHDB    LogFormat = "hdb"
)

// LoggingConfig configures the event-log and statistics sink (internal/logsink).
type LoggingConfig struct {
	Format    LogFormat `json:"format"`
	EventFile string    `json:"event_file"`
	StatsFile string    `json:"stats_file"`
	// LogDirTemplate holds an hdb-style per-program, per-peer log path
	// template, e.g. ".Log/%s/%s". Nothing in uuship reads it: events go to
	// EventFile under every format.
	LogDirTemplate string `json:"log_dir_template,omitempty"`
}

// StatsDBConfig configures the optional Postgres stats mirror (SPEC_FULL §2.4).
// The DSN itself is never stored here — it comes from an environment
// variable only, the same secret-handling discipline the teacher applies to
// its own Postgres DSN.
type StatsDBConfig struct {
	Enabled bool `json:"enabled"`
}

// JobStoreConfig configures the embedded sqlite sequence/job index.
type JobStoreConfig struct {
	Path string `json:"path"`
}

// TelemetryConfig configures optional OTLP tracing of the submission
// pipeline (SPEC_FULL §2.6).
type TelemetryConfig struct {
	OTLPEndpoint string `json:"otlp_endpoint,omitempty"`
}

// Config is the root configuration document for uuship.
type Config struct {
	Spool     SpoolConfig     `json:"spool"`
	Hosts     []Host          `json:"hosts"`
	UnknownOK bool            `json:"unknown_ok"`
	Logging   LoggingConfig   `json:"logging"`
	StatsDB   StatsDBConfig   `json:"stats_db,omitempty"`
	JobStore  JobStoreConfig  `json:"job_store,omitempty"`
	Telemetry TelemetryConfig `json:"telemetry,omitempty"`

	mu     sync.RWMutex
	hostIx map[string]Host
}

// Default returns a Config with sensible defaults, mirroring the shape of
// Taylor UUCP's compiled-in defaults (public spool root, taylor logging).
func Default() *Config {
	return &Config{
		Spool: SpoolConfig{
			Root:         "/var/spool/uuship",
			LockDir:      "/var/spool/uuship/LCK",
			DefaultGrade: "N",
		},
		Logging: LoggingConfig{
			Format:         FormatTaylor,
			EventFile:      "/var/spool/uuship/Log",
			StatsFile:      "/var/spool/uuship/Stats",
			LogDirTemplate: ".Log/%s/%s",
		},
		JobStore: JobStoreConfig{Path: "/var/spool/uuship/.jobstore.db"},
	}
}

// Host looks up a host by name. The returned bool is false if the host is
// not configured; callers combine this with UnknownOK to decide between
// UnknownHost (spec.md §7) and synthesizing a default record.
func (c *Config) Host(name string) (Host, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.hostIx == nil {
		return Host{}, false
	}
	h, ok := c.hostIx[name]
	return h, ok
}

// Synthesize builds the default host record used when a host is unknown but
// UnknownOK permits proceeding anyway (spec.md §7, UnknownHost handling).
func (c *Config) Synthesize(name string) Host {
	return Host{
		Name:         name,
		SpoolDir:     c.Spool.Root + "/" + name,
		PublicDir:    c.Spool.Root + "/" + name + "/PUBLIC",
		DefaultGrade: c.Spool.DefaultGrade,
	}
}

// Reindex rebuilds the name->Host lookup after Hosts changes. Load calls
// this automatically; callers that mutate cfg.Hosts directly (tests, mostly)
// must call it themselves.
func (c *Config) Reindex() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hostIx = make(map[string]Host, len(c.Hosts))
	for _, h := range c.Hosts {
		if h.SpoolDir == "" {
			h.SpoolDir = c.Spool.Root + "/" + h.Name
		}
		if h.DefaultGrade == "" {
			h.DefaultGrade = c.Spool.DefaultGrade
		}
		c.hostIx[h.Name] = h
	}
}
