package constants

// Route prefixes shared by the router, the docs and generated URLs.
const (
	PublicRoute  = "/"
	APIRoute     = "/api"
	APIv1Route   = "/api/v1"
	DocsRoute    = "/docs/api/"
	MetricsRoute = "/metrics"
	// WebhooksPath is appended to PUBLIC_URL to build the receive URL per provider.
	WebhooksPath = "webhooks"
)
