package internal

import (
	"encoding/json"
	"strings"
	"time"
)

// Role is the author of a chat message
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Message is one entry of a session transcript, oldest first
type Message struct {
	Role Role   `json:"role" yaml:"role"`
	Text string `json:"text" yaml:"text"`
}

// UnmarshalJSON maps the backend's memory roles ("human", "ai", "tool",
// ...) onto user and agent.
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw struct {
		Role string `json:"role"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Role = normalizeRole(raw.Role)
	m.Text = raw.Text
	return nil
}

func normalizeRole(role string) Role {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "user", "human":
		return RoleUser
	default:
		return RoleAgent
	}
}

// FileKind separates user-supplied assets from agent-produced outputs
type FileKind string

const (
	KindAsset  FileKind = "asset"
	KindOutput FileKind = "output"
)

// FileDescriptor is one entry of the asset or output inventory. Name is
// path-like and is the identity key within its inventory.
type FileDescriptor struct {
	Name     string   `json:"name" yaml:"name"`
	Size     int64    `json:"size" yaml:"size"`
	Modified int64    `json:"modified,omitempty" yaml:"modified,omitempty"` // unix millis, outputs only
	Kind     FileKind `json:"-" yaml:"kind"`
}

// Type classifies the descriptor by extension
func (d FileDescriptor) Type() MediaType {
	return ClassifyMedia(d.Name)
}

// ModifiedTime returns Modified as a time, zero when unknown
func (d FileDescriptor) ModifiedTime() time.Time {
	if d.Modified == 0 {
		return time.Time{}
	}
	return time.UnixMilli(d.Modified)
}

// Transcript is a session's conversation and inventories, used by the
// exporters
type Transcript struct {
	SessionID string           `json:"session" yaml:"session"`
	Messages  []Message        `json:"messages" yaml:"messages"`
	Assets    []FileDescriptor `json:"assets,omitempty" yaml:"assets,omitempty"`
	Outputs   []FileDescriptor `json:"outputs,omitempty" yaml:"outputs,omitempty"`
}

// AssetDeleteResult reports the outcome of a bulk asset delete
type AssetDeleteResult struct {
	Deleted []string `json:"deleted"`
	Errors  []string `json:"errors"`
}
