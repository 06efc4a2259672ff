package broker

// Config holds configuration for the outcome event publisher.
type Config struct {
	// URL is the AMQP URL. Publishing is disabled when empty.
	URL string `mapstructure:"url" default:""`
	// Queue is the durable queue receiving synchronization outcome events.
	Queue string `mapstructure:"queue" default:"ticketing.synchronization"`
}
