// Package stream implements the real-time event feed connection.
//
// The stream layer has two pieces:
//   - Client: a thin wrapper around a single gorilla/websocket connection
//     that surfaces frames and closures as channels
//   - Manager: an explicit connection state machine that owns one live
//     transport at a time, reconnects with exponential backoff and jitter,
//     parses inbound frames, and drives cache invalidation before handing
//     each message to the caller
//
// The Manager never surfaces transport failures as errors to its caller;
// they are absorbed into state transitions and log lines, and the machine
// self-heals up to a configured number of attempts.
package stream
