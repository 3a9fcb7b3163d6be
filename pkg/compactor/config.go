// SPDX-License-Identifier: AGPL-3.0-only

package compactor

import (
	"flag"
	"time"
)

// Config holds the file-list compactor's configuration, the Go
// counterpart of spec.md §6's configuration table.
type Config struct {
	Enabled          bool          `yaml:"enabled"`
	Interval         time.Duration `yaml:"interval"`
	LocalMode        bool          `yaml:"local_mode"`
	LockTimeout      time.Duration `yaml:"lock_timeout"`
	LockLeaseTTL     time.Duration `yaml:"-"`
	FetchConcurrency int           `yaml:"-"`

	UploadRetries      int           `yaml:"-"`
	UploadRetryMinWait time.Duration `yaml:"-"`
	UploadRetryMaxWait time.Duration `yaml:"-"`
}

// RegisterFlags registers the file-list compactor flags, named after
// spec.md's configuration table (compact.enabled, compact.interval,
// common.local-mode, etcd.command-timeout).
func (cfg *Config) RegisterFlags(f *flag.FlagSet) {
	f.BoolVar(&cfg.Enabled, "compact.enabled", true, "Enable the hourly file-list compactor.")
	f.DurationVar(&cfg.Interval, "compact.interval", time.Hour, "How frequently the file-list compactor runs.")
	f.BoolVar(&cfg.LocalMode, "common.local-mode", false, "Run as a single node; skip the distributed lock around file-list compaction.")
	f.DurationVar(&cfg.LockTimeout, "etcd.command-timeout", 10*time.Second, "Timeout for acquiring the file-list compaction lock.")

	cfg.LockLeaseTTL = 30 * time.Second
	cfg.FetchConcurrency = 20
	cfg.UploadRetries = 3
	cfg.UploadRetryMinWait = 100 * time.Millisecond
	cfg.UploadRetryMaxWait = 2 * time.Second
}
