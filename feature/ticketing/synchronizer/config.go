package synchronizer

import "time"

// Config holds the synchronization settings.
type Config struct {
	// LookbackMonths bounds the first fetch of a connection that never synchronized.
	LookbackMonths int `mapstructure:"lookback_months" default:"13"`
	// TransactionTimeoutSeconds bounds each apply transaction.
	TransactionTimeoutSeconds int `mapstructure:"transaction_timeout_seconds" default:"300"`
	// HTTPTimeoutSeconds bounds each provider request.
	HTTPTimeoutSeconds int `mapstructure:"http_timeout_seconds" default:"60"`
	// MaxParallelConnections caps the connections synchronized at once in one organization.
	MaxParallelConnections int `mapstructure:"max_parallel_connections" default:"4"`
	// ScheduleIntervalMinutes is the scheduler period. 0 disables the scheduler.
	ScheduleIntervalMinutes int `mapstructure:"schedule_interval_minutes" default:"0"`
	// LockBackend selects the organization lock: database, redis or local.
	LockBackend string `mapstructure:"lock_backend" default:"database"`
	// SnapshotPrefix is the object prefix of archived payloads.
	SnapshotPrefix string `mapstructure:"snapshot_prefix" default:"snapshots"`
	// SnapshotRetention is the number of snapshots kept per connection. 0 keeps all.
	SnapshotRetention int `mapstructure:"snapshot_retention" default:"30"`
	// ClientCacheTTLMinutes is how long a provider client, and its rate limiter, is reused.
	ClientCacheTTLMinutes int `mapstructure:"client_cache_ttl_minutes" default:"60"`
}

func (c Config) TransactionTimeout() time.Duration {
	return time.Duration(c.TransactionTimeoutSeconds) * time.Second
}

func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

func (c Config) ScheduleInterval() time.Duration {
	return time.Duration(c.ScheduleIntervalMinutes) * time.Minute
}

func (c Config) ClientCacheTTL() time.Duration {
	return time.Duration(c.ClientCacheTTLMinutes) * time.Minute
}

func (c Config) parallelism() int {
	if c.MaxParallelConnections <= 0 {
		return 1
	}
	return c.MaxParallelConnections
}

func (c Config) lookback() int {
	if c.LookbackMonths <= 0 {
		return 13
	}
	return c.LookbackMonths
}
