// Package helpdex provides a Go client for the helpdex documentation
// search service.
//
//	client, _ := helpdex.New("http://localhost:8080")
//	resp, err := client.Search(ctx, helpdex.SearchRequest{
//	    Query: "invoice posting",
//	    Mode:  helpdex.ModeAuto,
//	})
//	if errors.Is(err, helpdex.ErrRateLimited) {
//	    // back off and retry
//	}
//
// All errors returned by the service map to sentinel errors checkable
// with errors.Is. Rate-limit denials additionally carry a retry hint
// via RetryAfter.
package helpdex
