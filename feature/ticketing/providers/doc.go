/*
Package providers defines the contract shared by ticketing provider clients.

Each provider lives in its own subpackage and turns the provider's API into
lite.EventSerieWrapper values. This package holds what they have in common:

  - Client, Options and Credentials
  - typed errors (ContractViolationError, ForeignTaxJurisdictionError,
    UnmatchedTicketCategoryError) and the HTTPError/AssertionError aliases
  - pagination drains that always terminate (DrainPages, DrainCursor)
  - InferTaxRate, scope filters, Dedupe and amount helpers
  - Validate, which maps validator failures to ContractViolationError
  - ClientCache, which keeps one client per connection between runs

Clients never retry. Every error surfaces to the synchronizer, which records it
on the connection.
*/
package providers
