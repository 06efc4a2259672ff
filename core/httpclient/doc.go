// Package httpclient holds the outbound HTTP plumbing shared by provider clients.
//
// New returns an *http.Client with transport timeouts. Do, DoJSON and DoXML send a request, turn
// non-2xx responses into *StatusError and undecodable bodies into *DecodeError. URLs in errors
// have their query string removed because some providers authenticate through it.
package httpclient
