package security

import "testing"

func TestSanitize_RemovesHTMLTags(t *testing.T) {
	s := NewTextSanitizer()

	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"script tag", `<script>alert("x")</script>hola`, "hola"},
		{"bold tag", "<b>hola</b>", "hola"},
		{"nested tags", "<div><span>front text</span></div>", "front text"},
		{"img tag", `<img src="x" onerror="alert(1)">word`, "word"},
		{"plain text", "Spanish Basics", "Spanish Basics"},
		{"leading and trailing spaces", "  hola  ", "hola"},
		{"empty", "", ""},
		{"only tags", "<p></p>", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := s.Sanitize(tc.input); got != tc.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	s := NewTextSanitizer()

	input := "<b>hola</b> mundo"
	once := s.Sanitize(input)
	twice := s.Sanitize(once)
	if once != twice {
		t.Errorf("sanitize is not idempotent: %q vs %q", once, twice)
	}
}
