// Package store persists ticketing connections and the ledger they feed.
//
// Reads are scoped by organization and provider name rather than connection id, so a connection
// that was deleted and recreated still sees the series it created before.
//
// Apply writes one plan inside a single transaction with a timeout. The transaction first locks
// the connection row and checks its watermark against the value read at the start of the run,
// then applies mutations in a fixed order:
//
//  1. sales removals
//  2. series creates, then updates
//  3. category creates, updates, removes
//  4. event creates, updates, removes
//  5. sales creates, then updates
//
// Sales facts are written with their total only. TotalOverride and PriceOverride are set by users
// and never touched here.
package store
