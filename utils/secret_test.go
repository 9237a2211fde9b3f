package utils

import "testing"

func TestNormalizeSecret(t *testing.T) {
	cases := []struct{ in, want string }{
		{"raven", "raven"},
		{"  Raven ", "raven"},
		{"Crème  Brûlée", "creme brulee"},
		{"GHOST\tprotocol", "ghost protocol"},
	}
	for _, c := range cases {
		if got := NormalizeSecret(c.in); got != c.want {
			t.Errorf("NormalizeSecret(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
