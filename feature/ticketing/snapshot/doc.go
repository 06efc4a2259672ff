// Package snapshot archives the normalized payload of each committed synchronization run.
//
// Objects are written to <prefix>/<organization>/<ticketing system>/<timestamp>.json.
// Archiving is best effort: the synchronizer logs failures and never rolls back a commit.
package snapshot
