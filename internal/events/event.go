// Package events publishes generation results to NATS.
package events

import "time"

// GeneratedEvent is published after every generation run.
type GeneratedEvent struct {
	RunID     string          `json:"run_id"`
	Project   string          `json:"project"`
	Root      string          `json:"root"`
	Commit    string          `json:"commit,omitempty"`
	Outcome   string          `json:"outcome"`
	DryRun    bool            `json:"dry_run,omitempty"`
	Generator string          `json:"generator"`
	Documents []DocumentEvent `json:"documents"`
	Timestamp time.Time       `json:"timestamp"`
}

// DocumentEvent describes one document of a run.
type DocumentEvent struct {
	Kind   string `json:"kind"`
	Path   string `json:"path"`
	Status string `json:"status"`
}

// Changed reports whether any document was created or updated.
func (e *GeneratedEvent) Changed() bool {
	for _, d := range e.Documents {
		if d.Status == "created" || d.Status == "updated" {
			return true
		}
	}
	return false
}
