// Package httputil is the HTTP client shared by remote repository sources.
//
// [Client] wraps net/http with the behavior every repository request needs:
//
//   - responses optionally cached in a [cache.Cache] under [cache.HTTPKey]
//   - concurrent requests for the same URL collapsed into one round trip
//   - transient failures (network errors, 5xx) retried with backoff
//   - status codes mapped onto the resolver's error codes: 404 is NOT_FOUND,
//     everything else that fails is TRANSPORT
//
// Downloads of artifact files stream straight to a writer and bypass the cache.
package httputil
