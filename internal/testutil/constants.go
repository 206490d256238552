// Package testutil provides shared testing utilities and constants for the NCM client.
//
// This package centralizes common test constants, helper functions, and mock builders
// to reduce duplication across test files and improve test maintainability.
//
// # Key Components
//
// Constants: Shared test values (API keys, endpoints, error messages) defined in constants.go
//
// MockServerBuilder: Fluent interface for creating mock NCM servers that page v2 and v3
// collections the way NCM does
//
// Helper Functions: Common test utilities (data loading, record generation, assertions)
//
// # Usage Examples
//
// Creating a mock server:
//
//	server := testutil.NewMockServer().
//	    WithV2Collection(testutil.TestPathRouters, testutil.GenerateRecords(120)).
//	    WithV3Collection(testutil.TestPathUsers, "users", users).
//	    Build()
//	defer server.Close()
//
// Using shared constants:
//
//	apiKey := testutil.TestAPIKey
//	endpoint := testutil.TestPathRouters
package testutil

// HTTP headers
const (
	ContentTypeHeader   = "Content-Type"
	AcceptHeader        = "Accept"
	AuthorizationHeader = "Authorization"
)

// Common test values
const (
	ContentTypeJSON    = "application/json"
	ContentTypeJSONAPI = "application/vnd.api+json"
	TestAPIKey         = "test-api-key"
	TestToken          = "test-bearer-token"
)

// v2 API key header values
const (
	TestCPAPIID   = "test-cp-api-id"
	TestCPAPIKey  = "test-cp-api-key"
	TestECMAPIID  = "test-ecm-api-id"
	TestECMAPIKey = "test-ecm-api-key"
)

// Test endpoints and paths
const (
	TestPathAccounts              = "/accounts/"
	TestPathRouters               = "/routers/"
	TestPathGroups                = "/groups/"
	TestPathProducts              = "/products/"
	TestPathFirmwares             = "/firmwares/"
	TestPathLocations             = "/locations/"
	TestPathRouterAlerts          = "/router_alerts/"
	TestPathConfigurationManagers = "/configuration_managers/"
	TestPathUsers                 = "/beta/users"
	TestPathNetworks              = "/beta/private_cellular_networks"
	TestPathExchangeSites         = "/beta/exchange_sites"
	TestPathExchangeResources     = "/beta/exchange_resources"
	TestPathRegrades              = "/asset_endpoints/regrades"
	TestPathMetrics               = "/metrics"
	TestPathHealth                = "/health"
)

// Test error messages
const (
	TestErrorExpectedError           = "Expected error, got nil"
	TestErrorUnexpected              = "Unexpected error: %v"
	TestErrorValidateUnexpected      = "Validate() unexpected error = %v"
	TestErrorExpectedErrorContaining = "Expected error containing %q, got %q"
)

// Test server names and identifiers
const (
	TestServerName     = "test-server"
	TestOTELEndpoint   = "localhost:4317"
	TestServiceName    = "ncm-client-test"
	TestServiceVersion = "1.0.0-test"
	TestLogName        = "test.log"
	TestPort           = "2112"
)
