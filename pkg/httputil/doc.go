// Package httputil is the client side of the deskgeom HTTP API.
//
// [Client] posts scenes to a running `deskgeom serve` and decodes the
// results, so the CLI can solve against a shared server (and its Redis
// cache and Mongo dock store) instead of locally:
//
//	c := httputil.NewClient("http://desk-solver:8080")
//	res, solvedTOML, err := c.Solve(ctx, sceneTOML, httputil.SolveOptions{Align: true})
//
// Transient failures (network errors, 5xx and 429 responses) are retried by
// [Retry] with exponential backoff. API errors come back as *errors.Error
// carrying the server's code.
package httputil
