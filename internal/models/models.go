// Package models defines the domain types shared by wordmd components.
package models

import (
	"slices"
	"time"
)

// Content is the side-channel payload of a document: the markdown source and
// the named binary assets it references.
type Content struct {
	Markdown string
	Assets   map[string][]byte
}

// AssetNames returns the asset names in sorted order.
func (c Content) AssetNames() []string {
	var names []string
	for name := range c.Assets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Size returns the total payload size in bytes.
func (c Content) Size() int {
	n := len(c.Markdown)
	for _, data := range c.Assets {
		n += len(data)
	}
	return n
}

// CommitKind distinguishes live re-embeds from the final post-exit embed.
type CommitKind string

const (
	CommitLive  CommitKind = "live"
	CommitFinal CommitKind = "final"
)

// Commit describes one successful re-embed into a document.
type Commit struct {
	SessionID   string     `json:"session_id"`
	Kind        CommitKind `json:"kind"`
	Checksum    string     `json:"checksum"`
	Bytes       int        `json:"bytes"`
	Assets      int        `json:"assets"`
	CommittedAt time.Time  `json:"committed_at"`
}

// SessionRecord summarises one edit session.
type SessionRecord struct {
	ID         string    `json:"id"`
	Container  string    `json:"container"`
	Editor     string    `json:"editor"`
	State      string    `json:"state"`
	Commits    int       `json:"commits"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}
