//go:build !integration

package logging

import "testing"

func TestRedact(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"a@b.io", "***"},
		{"9876543210", "9876...10"},
		{"priya.sharma@example.com", "priy...om"},
	}
	for _, c := range cases {
		if got := Redact(c.in); got != c.want {
			t.Errorf("Redact(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
