// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package workspace

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/robotsdev/robots-tui/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNoSuggestion means accept/reject was called with nothing pending.
	ErrNoSuggestion = errors.New("no pending suggestion")
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// ProjectAPI is the slice of the api client the workspace needs.
type ProjectAPI interface {
	UploadFile(ctx context.Context, path, content string) error
	WriteProjectFile(ctx context.Context, path, content string) error
	Reindex(ctx context.Context) error
	ProjectIndex(ctx context.Context) ([]string, error)
}

// =============================================================================
// WORKSPACE
// =============================================================================

// Workspace tracks the remote project's file tree and the pending
// suggestion. Safe for concurrent use: socket events arrive off the UI
// goroutine.
type Workspace struct {
	api ProjectAPI

	mu         sync.Mutex
	files      map[string]struct{}
	suggestion *model.AgentSuggestion
}

// New creates an empty workspace.
func New(projectAPI ProjectAPI) *Workspace {
	return &Workspace{
		api:   projectAPI,
		files: make(map[string]struct{}),
	}
}

// =============================================================================
// FILE TREE
// =============================================================================

// Refresh replaces the tree with the backend's current index.
func (w *Workspace) Refresh(ctx context.Context) error {
	paths, err := w.api.ProjectIndex(ctx)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.files = make(map[string]struct{}, len(paths))
	for _, p := range paths {
		w.files[p] = struct{}{}
	}
	w.mu.Unlock()
	return nil
}

// ApplyChange folds one file-change event into the tree. Unknown event
// types are ignored.
func (w *Workspace) ApplyChange(change model.FileChange) {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch change.EventType {
	case "created", "modified":
		w.files[change.FilePath] = struct{}{}
	case "deleted":
		delete(w.files, change.FilePath)
	}
}

// Files returns the tracked paths, sorted.
func (w *Workspace) Files() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.files))
	for p := range w.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// =============================================================================
// SUGGESTIONS
// =============================================================================

// SetSuggestion replaces the pending suggestion; a newer suggestion
// supersedes an unreviewed one.
func (w *Workspace) SetSuggestion(s *model.AgentSuggestion) {
	w.mu.Lock()
	w.suggestion = s
	w.mu.Unlock()
}

// Suggestion returns the pending suggestion, or nil.
func (w *Workspace) Suggestion() *model.AgentSuggestion {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.suggestion
}

// AcceptSuggestion writes the proposed content to the backend, reindexes,
// and clears the pending suggestion. The suggestion is cleared only on
// success so a failed accept can be retried.
func (w *Workspace) AcceptSuggestion(ctx context.Context) error {
	w.mu.Lock()
	s := w.suggestion
	w.mu.Unlock()
	if s == nil {
		return ErrNoSuggestion
	}

	if err := w.api.WriteProjectFile(ctx, s.FilePath, s.ProposedContent); err != nil {
		return err
	}
	if err := w.api.Reindex(ctx); err != nil {
		return err
	}

	w.mu.Lock()
	if w.suggestion == s {
		w.suggestion = nil
	}
	w.files[s.FilePath] = struct{}{}
	w.mu.Unlock()
	return nil
}

// RejectSuggestion discards the pending suggestion.
func (w *Workspace) RejectSuggestion() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.suggestion == nil {
		return ErrNoSuggestion
	}
	w.suggestion = nil
	return nil
}
