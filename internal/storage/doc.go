// Package storage implements image file storage for the Camera Cloud Server.
//
// Uploaded JPEG frames are written to a flat directory with device-derived
// filenames. The store serves listing, lookup, and aggregate size queries for
// the HTTP API; it knows nothing about the live relay.
package storage
