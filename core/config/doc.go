// Package config provides configuration management for the ticketing synchronizer.
//
// It utilizes Viper for loading configuration from environment variables and
// an optional .env file. Defaults come from the `default` struct tags.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP server settings (port, API key)
//   - Log: Logging level and format
//   - Database: ledger connection (MySQL, SQLite) and tracing
//   - Redis: optional lock backend
//   - Storage: S3/MinIO snapshot bucket
//   - Broker: AMQP outcome events
//   - Sync: lookback, timeouts, parallelism, schedule, lock backend, snapshots
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Sync.LookbackMonths)
package config
