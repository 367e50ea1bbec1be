// Package session owns the TSS connection lifecycle.
//
// Ownership boundary:
// - connection state machine (disconnected, connecting, connected,
//   reconnecting, failed)
// - socket event intake and frame dispatch
// - periodic data requests
// - one-shot reconnect scheduling and backoff
//
// All state-machine fields are owned by the Run goroutine. Dial and read
// goroutines only post events.
package session
