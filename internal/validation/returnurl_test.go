package validation

import "testing"

func TestReturnURL(t *testing.T) {
	const front = "https://app.example"
	cases := []struct {
		name, in, want string
		rejected       bool
	}{
		{"same origin", "https://app.example/profile", "https://app.example/profile", false},
		{"same origin with query", "https://app.example/x?tab=1#top", "https://app.example/x?tab=1#top", false},
		{"explicit default port", "https://app.example:443/p", "https://app.example:443/p", false},
		{"host case", "https://APP.example/p", "https://APP.example/p", false},
		{"empty", "", front, false},
		{"blank", "   ", front, false},
		{"other origin", "https://evil.example/x", front, true},
		{"scheme downgrade", "http://app.example/p", front, true},
		{"other port", "https://app.example:8443/p", front, true},
		{"suffix trick", "https://app.example.evil.example/p", front, true},
		{"userinfo trick", "https://app.example@evil.example/p", front, true},
		{"relative", "/profile", front, true},
		{"protocol relative", "//evil.example/x", front, true},
		{"not a url", "not-a-valid-url", front, true},
		{"javascript", "javascript:alert(1)", front, true},
		{"backslash", "https://app.example\\@evil.example", front, true},
	}
	for _, c := range cases {
		got, rejected := CheckReturnURL(c.in, front)
		if got != c.want || rejected != c.rejected {
			t.Fatalf("%s: CheckReturnURL(%q) = (%q, %v), want (%q, %v)", c.name, c.in, got, rejected, c.want, c.rejected)
		}
	}
}

func TestReturnURL_DefaultWhenNoCandidate(t *testing.T) {
	if got := ReturnURL("", "https://app.example.com"); got != "https://app.example.com" {
		t.Fatalf("got %q", got)
	}
}

func TestOrigin(t *testing.T) {
	valid := map[string]string{
		"https://example.com/path":        "https://example.com",
		"http://localhost:4001/api/oauth": "http://localhost:4001",
		"HTTP://Example.COM:80/":          "http://example.com",
		"http://[::1]:3000/x":             "http://[::1]:3000",
	}
	for in, want := range valid {
		got, ok := Origin(in)
		if !ok || got != want {
			t.Fatalf("Origin(%q) = (%q, %v), want %q", in, got, ok, want)
		}
	}
	for _, in := range []string{"not-a-url", "ftp://example.com", "", "mailto:a@b.c"} {
		if _, ok := Origin(in); ok {
			t.Fatalf("expected invalid: %q", in)
		}
	}
}
