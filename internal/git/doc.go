// Package git reads repository metadata (branch, HEAD commit, origin remote,
// history size and worktree state) for inclusion in generated documents.
//
// Only local reads are performed; nothing is fetched or modified.
package git
