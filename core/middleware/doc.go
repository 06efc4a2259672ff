// Package middleware contains HTTP middleware for the Fiber application.
//
// # Components
//
//   - auth: API key validation (X-API-Key) protecting every operator endpoint.
//   - rayid: assigns a request id (RayID) to every request, stores it in the fiber locals and
//     echoes it in the response headers so logs can be correlated.
package middleware
