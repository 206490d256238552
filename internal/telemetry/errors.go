package telemetry

// This file defines error message templates for common failure scenarios.
// Templates provide consistent, actionable error messages with troubleshooting steps.
//
// Usage:
//
//	var apiErr *ncm.APIError
//	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
//	    return fmt.Errorf(telemetry.ErrUnauthorizedTemplate, apiErr.Label, apiErr.Body)
//	}

// Error message templates for common scenarios
const (
	// ErrUnauthorizedTemplate is returned when NCM rejects the configured credentials
	ErrUnauthorizedTemplate = `NCM rejected the credentials for %q (HTTP 401 Unauthorized).

Common causes:
1. One of the four v2 API keys (X-CP-API-ID, X-CP-API-KEY, X-ECM-API-ID, X-ECM-API-KEY) is wrong
2. The v3 bearer token expired or was revoked
3. The key pair belongs to another tenant

Troubleshooting steps:
1. Regenerate the keys under Tools > NetCloud API in NCM
2. Update the 'ncm' section of config.yaml or the X_CP_*, X_ECM_* and NCM_API_TOKEN environment variables
3. Send SIGHUP or touch config.yaml to reload credentials without restarting

Example configuration:
  ncm:
    cpApiId: "..."
    cpApiKey: "..."
    ecmApiId: "..."
    ecmApiKey: "..."
    token: "..."

Response: %s`

	// ErrMissingCredentialsTemplate is returned when a command needs credentials that are not configured
	ErrMissingCredentialsTemplate = `No %s credentials configured.

Provide them in config.yaml under 'ncm' or through the environment:
  v2: X_CP_API_ID, X_CP_API_KEY, X_ECM_API_ID, X_ECM_API_KEY
  v3: NCM_API_TOKEN`
)
