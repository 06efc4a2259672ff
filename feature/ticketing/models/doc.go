// Package models defines the gorm models of the ticketing ledger.
//
// TicketingSystem 1-N EventSerie 1-N Event, EventSerie 1-N TicketCategory, and
// EventCategoryTickets binds one Event to one TicketCategory. Every record carries the provider's
// own identifier in InternalTicketingSystemID, unique within its parent.
package models
