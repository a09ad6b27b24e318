// Package api provides a client for the task-queue server's REST API.
//
// The WebSocket feed carries change notifications only; the actual
// dashboard data is fetched over REST and cached. The client retries
// transient failures with exponential backoff.
package api
