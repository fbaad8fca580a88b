// Package acl provides the Anti-Corruption Layer between the quote provider's
// wire format and the domain.
//
// The provider answers GET {base}/quote?symbol=SYM&token=KEY with a flat JSON
// object of abbreviated fields (c, d, dp, h, l, o, pc, t). Nothing outside this
// package knows about HTTP status codes, the query-string token or the
// provider's error body.
//
// # Error Handling Strategy
//
// All failures leave this package as domain errors:
//   - transport failure or timeout → [domain.ErrNetwork]
//   - [clients.ErrCircuitOpen] → [domain.ErrNetwork] with CircuitOpen set
//   - 401/403 → [domain.ErrAuthentication]
//   - 429 → [domain.ErrRateLimit]
//   - any other non-2xx → [domain.ErrProviderHTTP]
//   - undecodable or non-object body → [domain.ErrMalformedResponse]
//   - zeroed payload flagged by the configured check → [domain.ErrUnknownSymbol]
//
// Missing or non-numeric fields are left to [domain.Normalize] so the raw
// payload is validated in exactly one place.
package acl
