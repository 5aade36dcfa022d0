package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/healthz", "/healthz"},
		{"/v1/authz/check", "/v1/authz/check"},
		{"/v1/authz/check?debug=1", "/v1/authz/check"},
		{"/v1/auth/login", "/v1/auth/login"},
		{"", "/"},
		{"/", "/"},
		{"/admin/.env", "other"},
		{"/v1/authz/check/extra", "other"},
		{"/wp-login.php", "other"},
	}
	for _, tc := range tests {
		if got := CanonicalPath(tc.in); got != tc.want {
			t.Fatalf("CanonicalPath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
