package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/skosovsky/tutorkit"
	"github.com/skosovsky/tutorkit/code"
	"github.com/skosovsky/tutorkit/workspace"
)

// runTimeout bounds run_active on top of the sandbox's own limit.
const runTimeout = 30 * time.Second

func (ts *Toolset) codeTools(b *builder) {
	add(b, "read_code", "Return the active file name, language and full content.",
		ts.readCode, tutorkit.WithReadOnly())
	add(b, "get_code_context", "List the files and name the active one.",
		ts.getCodeContext, tutorkit.WithReadOnly())
	add(b, "create_file", "Create a file and make it active.", ts.createFile)
	add(b, "set_active_file", "Make the named file active.", ts.setActiveFile)
	add(b, "update_code", "Replace the whole content of the active file.", ts.updateCode)
	add(b, "apply_edits", "Apply line or character range edits to the active file, in order.", ts.applyEdits)
	if ts.deps.Sandbox != nil {
		add(b, "run_active", "Run the active file and return stdout, stderr and run info.",
			ts.runActive, tutorkit.WithTimeout(runTimeout))
	}
}

// codeRejected reports editor conditions the agent can fix.
func codeRejected(err error) (tutorkit.Result, error) {
	switch {
	case errors.Is(err, code.ErrNoActiveFile):
		return tutorkit.Fail("no-active-file"), nil
	case errors.Is(err, code.ErrFileNotFound), errors.Is(err, code.ErrFileExists):
		return tutorkit.Fail(err.Error()), nil
	}
	return tutorkit.Result{}, err
}

func (ts *Toolset) readCode(_ context.Context, _ noArgs) (tutorkit.Result, error) {
	f, err := ts.deps.Editor.Active()
	if err != nil {
		return codeRejected(err)
	}
	return tutorkit.OK(fmt.Sprintf("%s (%s)", f.Name, f.Language), f), nil
}

type codeContext struct {
	Files  []fileInfo `json:"files"`
	Active string     `json:"active,omitempty"`
}

type fileInfo struct {
	Name     string `json:"name"`
	Language string `json:"language"`
	Size     int    `json:"size"`
}

func (ts *Toolset) getCodeContext(_ context.Context, _ noArgs) (tutorkit.Result, error) {
	files := ts.deps.Editor.Files()
	cc := codeContext{Files: make([]fileInfo, 0, len(files))}
	for _, f := range files {
		cc.Files = append(cc.Files, fileInfo{Name: f.Name, Language: f.Language, Size: len(f.Content)})
	}
	if active, err := ts.deps.Editor.Active(); err == nil {
		cc.Active = active.Name
	}
	return tutorkit.OK(fmt.Sprintf("%d files", len(cc.Files)), cc), nil
}

type createFileArgs struct {
	Name     string `json:"name"`
	Language string `json:"language,omitempty" description:"Defaults to python"`
	Content  string `json:"content,omitempty"`
}

func (ts *Toolset) createFile(_ context.Context, in createFileArgs) (tutorkit.Result, error) {
	if in.Name == "" {
		return tutorkit.Fail("name is required"), nil
	}
	if err := ts.deps.Editor.Create(in.Name, in.Language, in.Content); err != nil {
		return codeRejected(err)
	}
	return tutorkit.OK("created "+in.Name, nil), nil
}

type fileArgs struct {
	Name string `json:"name"`
}

func (ts *Toolset) setActiveFile(_ context.Context, in fileArgs) (tutorkit.Result, error) {
	if err := ts.deps.Editor.SetActive(in.Name); err != nil {
		return codeRejected(err)
	}
	return tutorkit.OK("active "+in.Name, nil), nil
}

type updateCodeArgs struct {
	Content string `json:"content"`
}

func (ts *Toolset) updateCode(_ context.Context, in updateCodeArgs) (tutorkit.Result, error) {
	f, err := ts.deps.Editor.SetContent(in.Content)
	if err != nil {
		return codeRejected(err)
	}
	return tutorkit.OK(fmt.Sprintf("updated content of %s (%d chars)", f.Name, len(f.Content)), nil), nil
}

type applyEditsArgs struct {
	Edits []code.Edit `json:"edits"`
}

func (ts *Toolset) applyEdits(_ context.Context, in applyEditsArgs) (tutorkit.Result, error) {
	if len(in.Edits) == 0 {
		return tutorkit.Fail("edits: at least one edit is required"), nil
	}
	ch, err := ts.deps.Editor.ApplyEdits(in.Edits)
	if errors.Is(err, code.ErrNoActiveFile) {
		return codeRejected(err)
	}
	if err != nil {
		return tutorkit.Fail(err.Error()), nil
	}
	return tutorkit.OK(fmt.Sprintf("applied %d edits", ch.Edits), map[string]any{
		"file":    ch.File.Name,
		"length":  len(ch.File.Content),
		"added":   ch.Added,
		"removed": ch.Removed,
	}), nil
}

func (ts *Toolset) runActive(ctx context.Context, _ noArgs) (tutorkit.Result, error) {
	r := code.Runner{Editor: ts.deps.Editor, Sandbox: ts.deps.Sandbox}
	res, err := r.RunActive(ctx)
	if errors.Is(err, code.ErrNoActiveFile) {
		return codeRejected(err)
	}
	if err != nil {
		return tutorkit.Result{}, err
	}
	if res.Info == nil {
		res.Info = []string{}
	}
	return tutorkit.OK(runSummary(res), res), nil
}

func runSummary(r workspace.RunResult) string {
	return fmt.Sprintf("stdout: %d chars, stderr: %d chars, info: %d items", len(r.Stdout), len(r.Stderr), len(r.Info))
}
