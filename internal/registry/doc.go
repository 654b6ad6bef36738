// Package registry implements the connection registry for the Camera Cloud Server.
//
// The registry is the authoritative, process-wide record of which connections
// are attached to which device's stream: at most one producer per device and
// an unbounded set of consumers. All operations are safe under concurrent
// connect, disconnect, and broadcast, and are idempotent no-ops on redundant
// removal.
package registry
