// Package query layers the invalidation cache over the REST client.
//
// Reads go through the cache under well-known key prefixes; the stream
// manager's invalidation router stales those prefixes when events arrive,
// so the next read re-fetches from the server.
package query
