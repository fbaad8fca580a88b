package dto

// CORS header values shared by the HTTP and serverless adapters.
const (
	CORSAllowOrigin  = "*"
	CORSAllowMethods = "GET, POST, OPTIONS"
	CORSAllowHeaders = "Content-Type"
	CORSMaxAge       = "3600"
)

// ResponseHeaders returns a fresh copy of the JSON and permissive
// cross-origin headers attached to every quote response.
func ResponseHeaders() map[string]string {
	return map[string]string{
		"Content-Type":                 "application/json",
		"Access-Control-Allow-Origin":  CORSAllowOrigin,
		"Access-Control-Allow-Methods": CORSAllowMethods,
		"Access-Control-Allow-Headers": CORSAllowHeaders,
		"Access-Control-Max-Age":       CORSMaxAge,
	}
}
