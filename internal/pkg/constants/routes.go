package constants

// Route constants
const (
	ContactRoute = "/api/contact"
	QuoteRoute   = "/api/quote"
	CMSGroup     = "/api/v1"
	AdminGroup   = "/api/admin"
	HealthRoute  = "/health"
	MetricsRoute = "/metrics"

	// OpenAPI UI is served at DocsBasePath + DocsPath
	DocsBasePath = "/docs/api/"
	DocsPath     = "v1"
	// OpenAPI document relative to the project root
	OpenAPIFile = "public/docs/v1/openapi.yml"
)
