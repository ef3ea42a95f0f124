package social

import (
	"errors"
	"strings"
	"testing"
)

func TestNormalizeUsername(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"alice", "alice"},
		{"  Alice  ", "alice"},
		{"a.b-c_9", "a.b-c_9"},
		{strings.Repeat("x", 32), strings.Repeat("x", 32)},
	}
	for _, tc := range cases {
		got, err := NormalizeUsername(tc.in)
		if err != nil {
			t.Fatalf("%q: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("%q: expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestNormalizeUsernameRejections(t *testing.T) {
	cases := []string{
		"",
		"ab",
		strings.Repeat("x", 33),
		"has space",
		"bang!",
		"émile",
	}
	for _, in := range cases {
		if _, err := NormalizeUsername(in); !errors.Is(err, ErrInvalidUsername) {
			t.Fatalf("%q: expected ErrInvalidUsername, got %v", in, err)
		}
	}
}

func TestParseVoteDirection(t *testing.T) {
	for _, raw := range []string{"up", "UP", " upvote "} {
		dir, err := ParseVoteDirection(raw)
		if err != nil || dir != VoteUp {
			t.Fatalf("%q: %v %v", raw, dir, err)
		}
	}
	for _, raw := range []string{"down", "downvote"} {
		dir, err := ParseVoteDirection(raw)
		if err != nil || dir != VoteDown {
			t.Fatalf("%q: %v %v", raw, dir, err)
		}
	}
	if _, err := ParseVoteDirection("sideways"); err == nil {
		t.Fatal("expected unknown direction to be rejected")
	}
}
