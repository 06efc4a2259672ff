// Package plan turns stored rows and freshly fetched wrappers into the four deltas a
// synchronization applies: series, ticket categories, events and sales facts.
//
// Both sides are converted to lite records keyed by tuple keys, then compared with the generic
// differ. Series removals are dropped from the plan because a series absent from an incremental
// fetch window is not proof of deletion. The Index maps stored keys to row ids so the store can
// address updates and removals without another lookup.
package plan
