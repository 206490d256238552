package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/fjacquet/ncm_client/internal/fleet"
	"github.com/fjacquet/ncm_client/internal/models"
	"github.com/fjacquet/ncm_client/internal/testutil"
	"github.com/fjacquet/ncm_client/pkg/ncm"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cliConfig = `ncm:
  cpApiId: "%s"
  cpApiKey: "%s"
  ecmApiId: "%s"
  ecmApiKey: "%s"
  token: "%s"
  v2BaseUrl: "%s"
  v3BaseUrl: "%s"
  retries: 0
  logEvents: false
`

func clearCredentialEnv(t *testing.T) {
	t.Helper()
	for _, env := range []string{models.EnvCPAPIID, models.EnvCPAPIKey, models.EnvECMAPIID, models.EnvECMAPIKey, models.EnvToken} {
		t.Setenv(env, "")
	}
}

func writeCLIConfig(t *testing.T, serverURL, token string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := fmt.Sprintf(cliConfig,
		testutil.TestCPAPIID, testutil.TestCPAPIKey, testutil.TestECMAPIID, testutil.TestECMAPIKey,
		token, serverURL, serverURL)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestParseParams(t *testing.T) {
	p, err := parseParams([]string{"state=online", "name__in=a,b", "empty="}, `{"limit": 5, "state": "offline"}`)
	require.NoError(t, err)
	assert.Equal(t, "online", p["state"], "pairs override the JSON object")
	assert.Equal(t, "a,b", p["name__in"])
	assert.Equal(t, "", p["empty"])
	assert.Equal(t, float64(5), p["limit"])

	p, err = parseParams([]string{"created_at__gte=2024-03-05", "id__gt=17", "updated_at=2024-03-05"}, "")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05T00:00:00Z", p["created_at__gte"])
	assert.Equal(t, "17", p["id__gt"], "non-dates pass through")
	assert.Equal(t, "2024-03-05", p["updated_at"], "only range filters are normalized")

	_, err = parseParams([]string{"novalue"}, "")
	assert.Error(t, err)
	_, err = parseParams([]string{"=x"}, "")
	assert.Error(t, err)
	_, err = parseParams(nil, "{not json")
	assert.ErrorContains(t, err, "--params-json")
}

func TestParseFields(t *testing.T) {
	fields, err := parseFields([]string{"description=core router", "asset_id=A=7"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"description": "core router", "asset_id": "A=7"}, fields)

	_, err = parseFields([]string{"description"})
	assert.Error(t, err)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv(models.EnvToken, "env-token")

	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.NCM.Token)
	assert.Equal(t, models.DefaultServerPort, cfg.Server.Port)
}

func TestCallWithoutCredentials(t *testing.T) {
	clearCredentialEnv(t)
	_, err := runCLI(t, "call", "get_routers")
	assert.ErrorIs(t, err, errNoCredentials)
}

func TestCallPrintsRecords(t *testing.T) {
	clearCredentialEnv(t)
	mock := testutil.NewMockServer().WithV2Collection(testutil.TestPathRouters, testutil.GenerateRecords(5))
	server := mock.Build()
	defer server.Close()

	out, err := runCLI(t, "call", "get_routers", "--config", writeCLIConfig(t, server.URL, ""), "--param", "name=router-2")
	require.NoError(t, err)

	var records []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "2", records[0]["id"])

	requests := mock.RequestsTo(http.MethodGet, testutil.TestPathRouters)
	require.Len(t, requests, 1)
	assert.Equal(t, testutil.TestECMAPIKey, requests[0].Header.Get(ncm.HeaderECMAPIKey))
}

func TestCallSearchSwitchFromText(t *testing.T) {
	clearCredentialEnv(t)
	mock := testutil.NewMockServer().WithV3Collection(testutil.TestPathUsers, "users", []map[string]any{
		{"id": "u1", "email": "ops@example.com"},
	})
	server := mock.Build()
	defer server.Close()

	_, err := runCLI(t, "call", "get_users", "--config", writeCLIConfig(t, server.URL, testutil.TestToken),
		"--param", "email=ops", "--param", "search=true")
	require.NoError(t, err)

	requests := mock.RequestsTo(http.MethodGet, testutil.TestPathUsers)
	require.NotEmpty(t, requests)
	assert.Equal(t, "ops", requests[0].Query.Get("search[email]"))
	assert.False(t, requests[0].Query.Has("search"))
	assert.False(t, requests[0].Query.Has("filter[email]"))
}

func TestCallUnknownOperation(t *testing.T) {
	clearCredentialEnv(t)
	server := testutil.NewMockServer().Build()
	defer server.Close()

	_, err := runCLI(t, "call", "get_unicorns", "--config", writeCLIConfig(t, server.URL, ""))
	var notSupported *ncm.MethodNotSupportedError
	assert.ErrorAs(t, err, &notSupported)
}

func TestOpsListsOperations(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv(models.EnvToken, testutil.TestToken)

	out, err := runCLI(t, "ops")
	require.NoError(t, err)
	assert.Contains(t, out, "get_users\n")
	assert.NotContains(t, out, "get_routers\n", "v2 operations need API keys")
}

func TestSetFieldPatchesRouterConfiguration(t *testing.T) {
	clearCredentialEnv(t)
	mock := testutil.NewMockServer().
		WithJSONResponse(testutil.TestPathConfigurationManagers, http.StatusOK, map[string]any{
			"data": []map[string]any{{"id": "cm-7"}},
			"meta": map[string]any{"next": nil},
		}).
		WithJSONResponse("/configuration_managers/cm-7/", http.StatusAccepted, map[string]any{"id": "cm-7"})
	server := mock.Build()
	defer server.Close()

	_, err := runCLI(t, "set-field", "7", "description=core router", "--config", writeCLIConfig(t, server.URL, ""))
	require.NoError(t, err)

	lookups := mock.RequestsTo(http.MethodGet, testutil.TestPathConfigurationManagers)
	require.Len(t, lookups, 1)
	assert.Equal(t, "7", lookups[0].Query.Get("router.id"))

	patches := mock.RequestsTo(http.MethodPatch, "/configuration_managers/cm-7/")
	require.Len(t, patches, 1)
	assert.JSONEq(t, `{"configuration":[{"system":{"desc":"core router"}},[]]}`, string(patches[0].Body))
}

func TestSetFieldRejectsUnknownField(t *testing.T) {
	clearCredentialEnv(t)
	mock := testutil.NewMockServer()
	server := mock.Build()
	defer server.Close()

	_, err := runCLI(t, "set-field", "7", "colour=blue", "--config", writeCLIConfig(t, server.URL, ""))
	var ve *ncm.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"colour"}, ve.Invalid)
	assert.Empty(t, mock.Requests())
}

func TestRegradeSubmitsAtomicBatch(t *testing.T) {
	clearCredentialEnv(t)
	mock := testutil.NewMockServer().WithJSONResponse("/asset_endpoints/regrades", http.StatusAccepted, map[string]any{})
	server := mock.Build()
	defer server.Close()

	out, err := runCLI(t, "regrade",
		"--subscription", "NCX-ESS",
		"--mac", "00:30:44:11:22:33",
		"--config", writeCLIConfig(t, server.URL, testutil.TestToken))
	require.NoError(t, err)
	assert.Contains(t, out, "StatusCode")

	requests := mock.RequestsTo(http.MethodPost, "/asset_endpoints/regrades")
	require.Len(t, requests, 1)
	assert.Contains(t, string(requests[0].Body), `"003044112233"`)
	assert.Contains(t, string(requests[0].Body), ncm.RegradeUpgrade)
}

func TestServeRequiresConfig(t *testing.T) {
	_, err := runCLI(t, "serve")
	assert.ErrorContains(t, err, "--config")
}

func TestHealthHandler(t *testing.T) {
	clearCredentialEnv(t)
	mock := testutil.NewMockServer().WithV2Collection(testutil.TestPathRouters, testutil.GenerateRecords(2))
	server := mock.Build()
	defer server.Close()

	s := &Server{}
	rec := httptest.NewRecorder()
	s.healthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	cfg, err := models.Load(writeCLIConfig(t, server.URL, ""))
	require.NoError(t, err)
	client := newClient(cfg, nil)
	defer client.Close()
	s.collector = fleet.NewCollector(func() *ncm.Client { return client })
	_, err = s.collector.Refresh(context.Background())
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	s.healthHandler(rec, httptest.NewRequest(http.MethodGet, "/health?deep=1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK\n", rec.Body.String())
}

func TestNewServerRoutes(t *testing.T) {
	clearCredentialEnv(t)
	cfg, err := models.Load(writeCLIConfig(t, "http://127.0.0.1:1", ""))
	require.NoError(t, err)

	s, err := NewServer(cfg, "")
	require.NoError(t, err)
	assert.Nil(t, s.telemetryManager)

	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, models.DefaultMetricsURI, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestExplainError(t *testing.T) {
	unauthorized := fmt.Errorf("get_routers: %w", &ncm.APIError{StatusCode: http.StatusUnauthorized, Label: "Get Routers", Body: "bad key"})
	assert.Contains(t, explainError(unauthorized).Error(), "NCM rejected the credentials for \"Get Routers\"")
	assert.Contains(t, explainError(errNoCredentials).Error(), "NCM_API_TOKEN")

	missing := fmt.Errorf("%w: v2 API keys not set", ncm.ErrMissingCredentials)
	explained := explainError(missing)
	assert.ErrorIs(t, explained, ncm.ErrMissingCredentials)

	other := fmt.Errorf("boom")
	assert.Same(t, other, explainError(other))
}

func TestTelemetryConfigDescribesDeployment(t *testing.T) {
	clearCredentialEnv(t)
	cfg, err := models.Load(writeCLIConfig(t, "https://eu.example.net/api", ""))
	require.NoError(t, err)
	imm, err := models.NewImmutableConfig(cfg)
	require.NoError(t, err)

	tc := telemetryConfig(imm, cfg)
	assert.Equal(t, []string{"v2"}, tc.APIVersions)
	assert.Equal(t, "https://eu.example.net/api", tc.V2BaseURL)
	assert.Equal(t, "https://eu.example.net/api", tc.V3BaseURL)

	cfg.NCM.Token = testutil.TestToken
	cfg.NCM.V3BaseURL = ""
	tc = telemetryConfig(imm, cfg)
	assert.Equal(t, []string{"v2", "v3"}, tc.APIVersions)
	assert.Equal(t, ncm.DefaultV3BaseURL, tc.V3BaseURL)
}
