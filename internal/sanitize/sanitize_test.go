package sanitize

import (
	"strings"
	"testing"
)

func TestMessage(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"clean", "login failed", "login failed"},
		{"empty", "", Placeholder},
		{"only controls", "\r\n\t\x1b", Placeholder},
		{"crlf injection", "user\r\nINFO: forged line", "userINFO: forged line"},
		{"ansi escape", "admin\x1b[31mred", "admin[31mred"},
		{"c1 controls", "a\u0085b\u009cc", "abc"},
		{"surrounding space", "  padded  ", "padded"},
		{"unicode preserved", "müllers setlist v2", "müllers setlist v2"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Message(tc.in)
			if got != tc.want {
				t.Fatalf("Message(%q) = %q, want %q", tc.in, got, tc.want)
			}
			if again := Message(got); again != got {
				t.Fatalf("not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestMessageTruncation(t *testing.T) {
	long := strings.Repeat("a", 600)
	got := Message(long)
	if len(got) != maxMessageLen {
		t.Fatalf("expected %d bytes, got %d", maxMessageLen, len(got))
	}

	// A multi-byte rune straddling the cut must not be split.
	long = strings.Repeat("a", maxMessageLen-1) + "é"
	got = Message(long)
	if len(got) != maxMessageLen-1 {
		t.Fatalf("rune split at boundary: %d bytes", len(got))
	}

	// A space landing exactly at the cut would break idempotence unless
	// trimmed again after truncation.
	long = strings.Repeat("a", maxMessageLen-1) + " b"
	got = Message(long)
	if got != Message(got) {
		t.Fatalf("truncated output not idempotent: %q", got)
	}
}

func TestUserID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "user-42", "user-42"},
		{"email style", "alice@example.com", "alice@example.com"},
		{"empty", "", Placeholder},
		{"all rejected", "<script>!", "script"},
		{"only symbols", "<>!#$%", Placeholder},
		{"spaces dropped", "user 42", "user42"},
		{"newline dropped", "user\n42", "user42"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := UserID(tc.in)
			if got != tc.want {
				t.Fatalf("UserID(%q) = %q, want %q", tc.in, got, tc.want)
			}
			if again := UserID(got); again != got {
				t.Fatalf("not idempotent: %q -> %q", got, again)
			}
		})
	}

	long := strings.Repeat("x", 200)
	if got := UserID(long); len(got) != maxUserIDLen {
		t.Fatalf("expected %d bytes, got %d", maxUserIDLen, len(got))
	}
}

func TestIPAddress(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"ipv4", "203.0.113.7", "203.0.113.0"},
		{"ipv4 already masked", "203.0.113.0", "203.0.113.0"},
		{"ipv4 in ipv6", "::ffff:203.0.113.7", "203.0.113.0"},
		{"ipv6", "2001:db8:85a3:8d3:1319:8a2e:370:7348", "2001:db8:85a3:8d3::"},
		{"ipv6 loopback", "::1", "::"},
		{"garbage", "not-an-ip", Placeholder},
		{"empty", "", Placeholder},
		{"hostname", "example.com", Placeholder},
		{"with port", "203.0.113.7:443", Placeholder},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := IPAddress(tc.in)
			if got != tc.want {
				t.Fatalf("IPAddress(%q) = %q, want %q", tc.in, got, tc.want)
			}
			if again := IPAddress(got); again != got {
				t.Fatalf("not idempotent: %q -> %q", got, again)
			}
		})
	}
}
