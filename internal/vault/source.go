// Package vault reads notes from a directory of markdown files.
package vault

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"notes-retrieval/internal/contextutil"
	"notes-retrieval/internal/indexer"
	"notes-retrieval/internal/syncer"
)

var taskItem = regexp.MustCompile(`(?m)^\s*[-*+] \[[ xX]\] `)

// Source lists the markdown files under Root as notes. A note's id is its
// slash-separated path relative to Root.
type Source struct {
	Root string
}

// NewSource creates a Source for root, which must be an existing directory.
func NewSource(root string) (*Source, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve notes path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to access notes path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("notes path %s is not a directory", abs)
	}
	return &Source{Root: abs}, nil
}

// ListNotes reads every markdown file. Files whose front matter cannot be
// parsed are logged and skipped.
func (s *Source) ListNotes(ctx context.Context, filter syncer.NoteFilter) ([]syncer.Note, error) {
	logger := contextutil.LoggerFromContext(ctx)

	var notes []syncer.Note
	err := filepath.WalkDir(s.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to access path %s: %w", path, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			if path != s.Root && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsNote(path) {
			return nil
		}

		note, err := s.readNote(path, d)
		if err != nil {
			logger.WarnContext(ctx, "skipping unreadable note", "path", path, "error", err)
			return nil
		}
		if note.Flags.Archived && !filter.IncludeArchived {
			return nil
		}
		notes = append(notes, note)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan notes: %w", err)
	}

	slices.SortFunc(notes, func(a, b syncer.Note) int {
		return strings.Compare(a.ID, b.ID)
	})
	logger.DebugContext(ctx, "listed notes", "root", s.Root, "count", len(notes))
	return notes, nil
}

func (s *Source) readNote(path string, d fs.DirEntry) (syncer.Note, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return syncer.Note{}, err
	}
	info, err := d.Info()
	if err != nil {
		return syncer.Note{}, err
	}
	id, err := s.NoteID(path)
	if err != nil {
		return syncer.Note{}, err
	}

	header, body := splitFrontMatter(raw)
	fm, err := parseFrontMatter(header)
	if err != nil {
		return syncer.Note{}, err
	}

	// An edit that leaves a stale updated: key must still count as a change.
	updated := info.ModTime().UTC()
	if fm.Updated != nil && fm.Updated.After(updated) {
		updated = fm.Updated.UTC()
	}
	created := updated
	if fm.Created != nil {
		created = fm.Created.UTC()
	}

	content := string(body)
	taskList := taskItem.MatchString(content)
	if fm.TaskList != nil {
		taskList = *fm.TaskList
	}

	return syncer.Note{
		ID:        id,
		Title:     strings.TrimSpace(fm.Title),
		Tags:      fm.Tags,
		Content:   content,
		Images:    fm.images(),
		CreatedAt: created,
		UpdatedAt: updated,
		Flags: indexer.Flags{
			Archived:     fm.Archived,
			Published:    fm.Published,
			SharedByMe:   fm.SharedByMe,
			SharedWithMe: fm.SharedWithMe,
			TaskListNote: taskList,
		},
	}, nil
}

// NoteID returns the id of the note stored at path.
func (s *Source) NoteID(path string) (string, error) {
	rel, err := filepath.Rel(s.Root, path)
	if err != nil {
		return "", fmt.Errorf("failed to compute relative path for %s: %w", path, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside %s", path, s.Root)
	}
	return filepath.ToSlash(rel), nil
}

// IsNote reports whether path names a markdown file.
func IsNote(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// skipDir reports whether a directory holds tool state rather than notes.
func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "node_modules"
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
