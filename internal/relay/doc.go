// Package relay implements the live stream relay for the Camera Cloud Server.
//
// One producer connection per device pushes JPEG frames; the relay validates
// each frame and fans it out to every consumer registered for that device.
// Delivery is best-effort: a slow or dead consumer is removed without
// affecting the producer or the remaining consumers, and lost frames are
// never retried.
package relay
