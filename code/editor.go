// Package code is the single-file code editor handle: files, the active file, range
// edits and a sandbox that runs the active file.
package code

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/skosovsky/tutorkit/workspace"
)

var (
	// ErrNoActiveFile is returned by operations on the active file when none is set.
	ErrNoActiveFile = errors.New("no active file")
	// ErrFileNotFound is returned for unknown file names.
	ErrFileNotFound = errors.New("file not found")
	// ErrFileExists is returned when creating a file under a taken name.
	ErrFileExists = errors.New("file already exists")
)

// DefaultLanguage is used when a file is created without a language.
const DefaultLanguage = "python"

// Editor is safe for concurrent use.
type Editor struct {
	mu       sync.RWMutex
	files    []workspace.CodeFile
	active   int
	onChange func(workspace.CodeFile)
}

// EditorOption configures an Editor.
type EditorOption func(*Editor)

// WithFile adds a file. The first file becomes active.
func WithFile(f workspace.CodeFile) EditorOption {
	return func(e *Editor) {
		if f.Language == "" {
			f.Language = DefaultLanguage
		}
		e.files = append(e.files, f)
		if e.active < 0 {
			e.active = 0
		}
	}
}

// WithChangeHook registers fn to run after the content of a file changes.
func WithChangeHook(fn func(workspace.CodeFile)) EditorOption {
	return func(e *Editor) { e.onChange = fn }
}

// NewEditor returns an editor with the given files.
func NewEditor(opts ...EditorOption) *Editor {
	e := &Editor{active: -1}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Active returns the active file.
func (e *Editor) Active() (workspace.CodeFile, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.active < 0 {
		return workspace.CodeFile{}, ErrNoActiveFile
	}
	return e.files[e.active], nil
}

// Files returns every file in creation order.
func (e *Editor) Files() []workspace.CodeFile {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.files)
}

// Create adds a file and makes it active.
func (e *Editor) Create(name, language, content string) error {
	if language == "" {
		language = DefaultLanguage
	}
	e.mu.Lock()
	if e.index(name) >= 0 {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrFileExists, name)
	}
	f := workspace.CodeFile{Name: name, Language: language, Content: content}
	e.files = append(e.files, f)
	e.active = len(e.files) - 1
	e.mu.Unlock()
	e.changed(f)
	return nil
}

// SetActive switches the active file.
func (e *Editor) SetActive(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := e.index(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrFileNotFound, name)
	}
	e.active = i
	return nil
}

// SetContent replaces the content of the active file.
func (e *Editor) SetContent(content string) (workspace.CodeFile, error) {
	return e.update(func(string) (string, error) { return content, nil })
}

// update rewrites the active file with fn under the lock.
func (e *Editor) update(fn func(string) (string, error)) (workspace.CodeFile, error) {
	e.mu.Lock()
	if e.active < 0 {
		e.mu.Unlock()
		return workspace.CodeFile{}, ErrNoActiveFile
	}
	next, err := fn(e.files[e.active].Content)
	if err != nil {
		e.mu.Unlock()
		return workspace.CodeFile{}, err
	}
	e.files[e.active].Content = next
	f := e.files[e.active]
	e.mu.Unlock()
	e.changed(f)
	return f, nil
}

func (e *Editor) index(name string) int {
	return slices.IndexFunc(e.files, func(f workspace.CodeFile) bool { return f.Name == name })
}

func (e *Editor) changed(f workspace.CodeFile) {
	if e.onChange != nil {
		e.onChange(f)
	}
}
