// Package ncm provides a client for the Cradlepoint NetCloud Manager (NCM)
// REST APIs.
//
// NCM exposes two API generations that differ in authentication, filter
// grammar, pagination and payload shape:
//
//   - v2: four API key headers, key/value filters, flat JSON payloads and
//     "meta.next" pagination. Served by V2Client.
//   - v3: bearer token, JSON:API documents (type/id/attributes/relationships),
//     filter[...]/search[...] query grammar and "links.next" pagination.
//     Served by V3Client.
//
// Client combines both behind one Operator surface. When both credential
// sets are present, operations known to v3 are served by v3 and the rest fall
// back to v2.
//
// # Usage
//
//	client := ncm.New(ncm.Credentials{
//	    APIKeys: ncm.APIKeys{CPAPIID: "...", CPAPIKey: "...", ECMAPIID: "...", ECMAPIKey: "..."},
//	    Token:   "...",
//	}, ncm.WithLogEvents(true))
//	defer client.Close()
//
//	v2, err := client.V2()
//	if err != nil {
//	    return err
//	}
//	routers, err := v2.GetRouters(ctx, ncm.Params{"state": "online", "limit": 100})
//
// # Errors
//
// Validation problems (unknown parameters, missing credentials, malformed
// resource specs) are reported before any request is sent. Server-side
// failures are returned as *APIError carrying the "ERROR: <code>: <body>"
// text, and network failures as *TransportError. Long-running automation can
// use ValueOr to keep polling loops alive on transient failures.
package ncm
