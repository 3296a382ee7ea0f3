package normalize

import "testing"

func TestPath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"/users/550e8400-e29b-41d4-a716-446655440000", "/users/{id}"},
		{"/users/123/profile", "/users/{id}/profile"},
		{"/files/a1b2c3d4e5f6a7b8c9d0", "/files/{hash}"},
		{"/posts/my-first-blog-post", "/posts/{slug}"},
		{"", ""},
		{"/", "/"},
		{"/api/v2/health", "/api/v2/health"},
		{"/users/-42", "/users/{id}"},
	}
	for _, c := range cases {
		got := Path(c.in)
		if got != c.want {
			t.Errorf("Path(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestPathNeverPanics(t *testing.T) {
	inputs := []string{"", "/", "///", "/\x00/weird", "not-a-path-at-all"}
	for _, in := range inputs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("Path(%q) panicked: %v", in, r)
				}
			}()
			_ = Path(in)
		}()
	}
}

func TestPathTokenDetection(t *testing.T) {
	got := Path("/confirm/eyJhbGciOiJIUzI1NiJ9abc")
	if got != "/confirm/{token}" {
		t.Errorf("Path(token) = %q, want /confirm/{token}", got)
	}
}
