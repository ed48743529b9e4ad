package cmd

import (
	"errors"
	"strings"
	"testing"

	"github.com/iksnae/vedit-session/internal"
	"github.com/iksnae/vedit-session/testutil"
)

func TestShowCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{
			name: "whole conversation",
			want: []string{"💬 a", "👤 You", "Trim the intro", "🎬 Agent", "Saved as clip.mp4", "[2/2]"},
		},
		{
			name:    "limit keeps the most recent",
			args:    []string{"--limit", "1"},
			want:    []string{"(1 earlier message(s))", "Saved as clip.mp4"},
			notWant: []string{"Trim the intro"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCLIEnv(t)
			c.backend.AddSession("a", clipSession())
			c.selectSession(t, "a")

			out, err := c.run(t, append([]string{"show"}, tt.args...)...)
			if err != nil {
				t.Fatalf("show error = %v", err)
			}
			assertContains(t, out, tt.want...)
			for _, s := range tt.notWant {
				if strings.Contains(out, s) {
					t.Errorf("output contains %q:\n%s", s, out)
				}
			}
		})
	}
}

func TestShowCommand_EmptySession(t *testing.T) {
	c := newCLIEnv(t)
	c.backend.AddSession("empty", &testutil.FakeSession{})

	out, err := c.run(t, "show", "-s", "empty")
	if err != nil {
		t.Fatalf("show error = %v", err)
	}
	assertContains(t, out, "No messages yet")
}

func TestShowCommand_Errors(t *testing.T) {
	t.Run("no session selected", func(t *testing.T) {
		c := newCLIEnv(t)
		_, err := c.run(t, "show")
		if !errors.Is(err, internal.ErrNoSession) {
			t.Errorf("show error = %v, want ErrNoSession", err)
		}
	})

	t.Run("chat pane failure", func(t *testing.T) {
		c := newCLIEnv(t)
		c.backend.AddSession("a", clipSession())
		c.backend.Fail("GET", "/api/sessions/a/messages", 500)
		_, err := c.run(t, "show", "-s", "a")
		var terr *internal.TransportError
		if !errors.As(err, &terr) || terr.Status != 500 {
			t.Errorf("show error = %v, want a 500 transport error", err)
		}
	})
}
