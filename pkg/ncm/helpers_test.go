package ncm

import (
	"net/http/httptest"
	"testing"

	"github.com/fjacquet/ncm_client/internal/testutil"
)

// testKeys is a complete v2 key bundle.
var testKeys = APIKeys{
	CPAPIID:   testutil.TestCPAPIID,
	CPAPIKey:  testutil.TestCPAPIKey,
	ECMAPIID:  testutil.TestECMAPIID,
	ECMAPIKey: testutil.TestECMAPIKey,
}

// fastOptions points both generations at server and disables backoff and
// outcome logging.
func fastOptions(server *httptest.Server, extra ...Option) []Option {
	opts := []Option{
		WithV2BaseURL(server.URL),
		WithV3BaseURL(server.URL),
		WithRetryBackoffFactor(0),
		WithLogEvents(false),
	}
	return append(opts, extra...)
}

func newTestV2(t *testing.T, server *httptest.Server, extra ...Option) *V2Client {
	t.Helper()
	c := NewV2Client(testKeys, fastOptions(server, extra...)...)
	t.Cleanup(c.Close)
	return c
}

func newTestV3(t *testing.T, server *httptest.Server, extra ...Option) *V3Client {
	t.Helper()
	c := NewV3Client(testutil.TestToken, fastOptions(server, extra...)...)
	t.Cleanup(c.Close)
	return c
}
