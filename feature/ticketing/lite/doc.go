// Package lite holds the normalized, provider-agnostic records compared during a synchronization.
//
// Lite records are transient: providers produce them from remote payloads, the plan package
// produces them from stored rows, and the differ compares the two. They carry only semantic
// attributes, never storage identifiers. Constructors normalize values to what the store keeps
// (UTC seconds, cents, four-digit tax rates) so a round trip through the database compares equal.
//
// Tax rates are decimal.NullDecimal fractions; an invalid value means the rate is unknown and
// every consumer must handle that case.
package lite
