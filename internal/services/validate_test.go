package services

import "testing"

func TestValidEditionSlug(t *testing.T) {
	cases := map[string]bool{
		"2024-1":   true,
		"2024-12":  true,
		"2024-123": false,
		"24-1":     false,
		"latest":   false,
		"":         false,
	}
	for slug, want := range cases {
		if got := ValidEditionSlug(slug); got != want {
			t.Fatalf("ValidEditionSlug(%q): want=%v got=%v", slug, want, got)
		}
	}
}
