// Package api implements the HTTP surface of the Camera Cloud Server.
//
// It exposes the still-image upload and introspection endpoints, the
// WebSocket stream endpoint that feeds the relay, and the HTML live viewer.
// Handlers delegate to ports so storage and statistics stay swappable in
// tests.
package api
