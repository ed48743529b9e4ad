package internal

import (
	"encoding/json"
	"testing"
	"time"
)

func TestMessageRoles(t *testing.T) {
	tests := []struct {
		raw  string
		want Role
	}{
		{`{"role":"user","text":"hi"}`, RoleUser},
		{`{"role":"human","text":"hi"}`, RoleUser},
		{`{"role":"Human","text":"hi"}`, RoleUser},
		{`{"role":"ai","text":"hi"}`, RoleAgent},
		{`{"role":"agent","text":"hi"}`, RoleAgent},
		{`{"role":"tool","text":"hi"}`, RoleAgent},
		{`{"text":"hi"}`, RoleAgent},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var m Message
			if err := json.Unmarshal([]byte(tt.raw), &m); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if m.Role != tt.want {
				t.Errorf("Role = %v, want %v", m.Role, tt.want)
			}
			if m.Text != "hi" {
				t.Errorf("Text = %q", m.Text)
			}
		})
	}
}

func TestFileDescriptor(t *testing.T) {
	d := FileDescriptor{Name: "renders/final.mp4", Size: 1024, Modified: 1700000000000, Kind: KindOutput}
	if d.Type() != MediaVideo {
		t.Errorf("Type() = %v", d.Type())
	}
	if !d.ModifiedTime().Equal(time.UnixMilli(1700000000000)) {
		t.Errorf("ModifiedTime() = %v", d.ModifiedTime())
	}
	if !(FileDescriptor{Name: "a.png"}).ModifiedTime().IsZero() {
		t.Error("missing Modified should give zero time")
	}

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	var back map[string]interface{}
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if _, ok := back["Kind"]; ok {
		t.Error("Kind is local and should not be serialised")
	}
}
