package telemetry

// HTTP semantic convention attributes
const (
	AttrHTTPMethod                = "http.method"
	AttrHTTPURL                   = "http.url"
	AttrHTTPStatusCode            = "http.status_code"
	AttrHTTPRequestContentLength  = "http.request_content_length"
	AttrHTTPResponseContentLength = "http.response_content_length"
	AttrHTTPDurationMS            = "http.duration_ms"
)

// NCM-specific attributes
const (
	AttrNCMAPIVersion  = "ncm.api_version"
	AttrNCMOperation   = "ncm.operation"
	AttrNCMRouterCount = "ncm.router_count"
)

// NCM deployment resource attributes
const (
	AttrNCMAPIVersions = "ncm.api_versions"
	AttrNCMV2BaseURL   = "ncm.v2.base_url"
	AttrNCMV3BaseURL   = "ncm.v3.base_url"
)

// Scrape cycle attributes
const (
	AttrScrapeDurationMS = "scrape.duration_ms"
	AttrScrapeStatus     = "scrape.status"
)

// Error attributes
const (
	AttrError = "error"
)
