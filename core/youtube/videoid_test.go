package youtube

import "testing"

func TestExtractVideoID(t *testing.T) {
	cases := []struct {
		name string
		ref  string
		want string
		ok   bool
	}{
		{"bare id", "dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"watch url", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"watch url with extra params", "https://www.youtube.com/watch?list=PL123&v=dQw4w9WgXcQ&t=42", "dQw4w9WgXcQ", true},
		{"short link", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"short link with params", "https://youtu.be/dQw4w9WgXcQ?t=10", "dQw4w9WgXcQ", true},
		{"embed url", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"shorts url", "https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"music watch url", "https://music.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"empty", "", "", false},
		{"random text", "not a video at all", "", false},
		{"id too short", "dQw4w9Wg", "", false},
		{"unrelated url", "https://example.com/watch?v=dQw4w9WgXcQ", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractVideoID(tc.ref)
			if ok != tc.ok {
				t.Fatalf("ExtractVideoID(%q) ok = %v, want %v", tc.ref, ok, tc.ok)
			}
			if got != tc.want {
				t.Fatalf("ExtractVideoID(%q) = %q, want %q", tc.ref, got, tc.want)
			}
		})
	}
}
