// Package ticketing exposes the ticketing synchronization over HTTP.
//
// # Components
//
//   - Service: runs synchronizations, lists connections and tests credentials.
//   - Handler: maps the service onto fiber routes.
//   - Feature: registers the handler with the loader.
//
// # HTTP Endpoints
//
//   - POST /organizations/:organizationId/synchronize : synchronize every active connection.
//   - GET /organizations/:organizationId/ticketing-systems : list connections with their watermark.
//   - POST /ticketing-systems/:id/test : check the credentials of one connection.
package ticketing
