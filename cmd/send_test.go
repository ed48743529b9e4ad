package cmd

import (
	"slices"
	"testing"
)

func TestSendCommand(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		env        map[string]string
		selected   []string
		wantText   string
		wantModel  string
		wantAssets []string
	}{
		{
			name:     "joins the words",
			args:     []string{"trim", "the", "intro"},
			wantText: "trim the intro",
		},
		{
			name:       "selected assets go along",
			args:       []string{"hello"},
			selected:   []string{"intro.mp4"},
			wantText:   "hello",
			wantAssets: []string{"intro.mp4"},
		},
		{
			name:       "asset flag replaces the selection",
			args:       []string{"hello", "--asset", "song.mp3"},
			selected:   []string{"intro.mp4"},
			wantText:   "hello",
			wantAssets: []string{"song.mp3"},
		},
		{
			name:      "model from the environment",
			args:      []string{"hello"},
			env:       map[string]string{"GEMINI_MODEL": "gemini-pro"},
			wantText:  "hello",
			wantModel: "gemini-pro",
		},
		{
			name:      "model flag wins",
			args:      []string{"hello", "-m", "flash"},
			env:       map[string]string{"VEDIT_MODEL": "gemini-pro"},
			wantText:  "hello",
			wantModel: "flash",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCLIEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			c.backend.AddSession("a", clipSession())
			c.backend.Reply = "On it"
			c.selectSession(t, "a", tt.selected...)

			out, err := c.run(t, append([]string{"send"}, tt.args...)...)
			if err != nil {
				t.Fatalf("send error = %v", err)
			}
			assertContains(t, out, "🎬 Agent", "On it")

			sent := c.backend.Sent()
			if len(sent) != 1 {
				t.Fatalf("sent %d messages, want 1", len(sent))
			}
			got := sent[0]
			if got.Session != "a" || got.Message != tt.wantText || got.Model != tt.wantModel {
				t.Errorf("sent %+v, want text %q model %q", got, tt.wantText, tt.wantModel)
			}
			if !slices.Equal(got.AssetNames, tt.wantAssets) {
				t.Errorf("asset names = %v, want %v", got.AssetNames, tt.wantAssets)
			}
		})
	}
}

func TestSendCommand_Errors(t *testing.T) {
	c := newCLIEnv(t)
	c.backend.AddSession("a", clipSession())
	c.selectSession(t, "a")

	if _, err := c.run(t, "send", "   "); err == nil {
		t.Error("blank message accepted")
	}
	if _, err := c.run(t, "send", "hi", "-s", "missing"); err == nil {
		t.Error("send to a missing session succeeded")
	}
	if n := len(c.backend.Sent()); n != 0 {
		t.Errorf("backend received %d messages, want 0", n)
	}
}
