package redis

// Config holds configuration for the Redis connection.
type Config struct {
	// Enabled builds a client at startup. Required by the redis lock backend.
	Enabled bool `mapstructure:"enabled" default:"false"`
	// Addr is the host:port of the Redis server.
	Addr string `mapstructure:"addr" default:"localhost:6379"`
	// Password is the optional AUTH password.
	Password string `mapstructure:"password" default:""`
	// DB selects the logical database.
	DB int `mapstructure:"db" default:"0"`
	// LockTTLSeconds is the lease of a synchronization lock, refreshed while held.
	LockTTLSeconds int `mapstructure:"lock_ttl_seconds" default:"30"`
}
