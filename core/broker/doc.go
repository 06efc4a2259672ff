// Package broker publishes synchronization outcome events to RabbitMQ.
//
// Events are JSON, persistent, and routed through the default exchange to one durable queue. The
// message type carries the event name (e.g. "ticketing.synchronization.completed"). When no URL is
// configured New returns Nop so callers never branch on availability.
package broker
