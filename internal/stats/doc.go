// Package stats implements per-device upload bookkeeping for the Camera Cloud Server.
//
// Tracker keeps in-memory counters (total, success, fail, last upload time)
// per device. UploadLog appends upload records to a JSON file in the upload
// directory, bounded to the most recent N entries.
package stats
