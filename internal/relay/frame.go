package relay

// JPEG start-of-image and end-of-image markers.
const (
	soi0 = 0xFF
	soi1 = 0xD8
	eoi0 = 0xFF
	eoi1 = 0xD9
)

// ValidFrame reports whether b looks like a complete JPEG image: at least
// four bytes, starting with the SOI marker and ending with the EOI marker.
// This is a structural sniff, not a decode; it cheaply rejects empty,
// truncated, and non-JPEG payloads.
func ValidFrame(b []byte) bool {
	n := len(b)
	if n < 4 {
		return false
	}
	return b[0] == soi0 && b[1] == soi1 && b[n-2] == eoi0 && b[n-1] == eoi1
}
