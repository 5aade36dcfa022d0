// Package sanitize is the taint-breaking boundary for externally influenced
// strings. Everything that ends up in a log line or a security_events row
// goes through here first; no other package writes raw caller input to a
// sink. All functions are total and idempotent.
package sanitize

import (
	"net/netip"
	"strings"
)

const (
	// Placeholder replaces input that cannot be rendered safely.
	Placeholder = "unknown"

	maxMessageLen = 500
	maxUserIDLen  = 128
)

// Message strips C0/C1 control characters (including CR and LF) and caps the
// result at a fixed length. Empty or fully stripped input yields Placeholder.
func Message(s string) string {
	if s == "" {
		return Placeholder
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return Placeholder
	}
	// Trim again after the cut so a boundary space cannot defeat idempotence.
	return strings.TrimSpace(truncate(out, maxMessageLen))
}

// UserID applies Message semantics plus an allow-list character class.
// Anything outside [A-Za-z0-9._@-] is dropped rather than escaped so the
// result is safe in structured keys as well as values.
func UserID(s string) string {
	if s == "" {
		return Placeholder
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isUserIDRune(r) {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "" {
		return Placeholder
	}
	return truncate(out, maxUserIDLen)
}

// IPAddress validates the literal and masks it for privacy: the last IPv4
// octet is zeroed, an IPv6 address keeps only its leading four groups.
// Unparsable input yields Placeholder.
func IPAddress(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || s == Placeholder {
		return Placeholder
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return Placeholder
	}
	if addr.Is4() || addr.Is4In6() {
		v4 := addr.As4()
		v4[3] = 0
		return netip.AddrFrom4(v4).String()
	}
	v6 := addr.As16()
	for i := 8; i < 16; i++ {
		v6[i] = 0
	}
	return netip.AddrFrom16(v6).String()
}

func isControl(r rune) bool {
	return r < 0x20 || (r >= 0x7f && r <= 0x9f)
}

func isUserIDRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '.' || r == '_' || r == '@' || r == '-':
		return true
	default:
		return false
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// Cut on a rune boundary so the result stays valid UTF-8.
	cut := max
	for cut > 0 && s[cut]&0xc0 == 0x80 {
		cut--
	}
	return s[:cut]
}
