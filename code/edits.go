package code

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/skosovsky/tutorkit/workspace"
)

// EditType selects how an Edit addresses the file.
type EditType string

const (
	// EditLine replaces lines [StartLine, EndLine), 1-based.
	EditLine EditType = "line"
	// EditChar replaces characters [Start, End), 0-based.
	EditChar EditType = "char"
)

// Range addresses either lines or characters depending on the edit type.
type Range struct {
	StartLine int `json:"startLine,omitempty" jsonschema:"first line to replace, 1-based (line edits)"`
	EndLine   int `json:"endLine,omitempty" jsonschema:"line after the last replaced one (line edits)"`
	Start     int `json:"start,omitempty" jsonschema:"first character to replace, 0-based (char edits)"`
	End       int `json:"end,omitempty" jsonschema:"character after the last replaced one (char edits)"`
}

// Edit replaces a range of the active file with Text. Out-of-range positions are
// clamped to the file.
type Edit struct {
	Type  EditType `json:"type" jsonschema:"line or char"`
	Range Range    `json:"range"`
	Text  string   `json:"text,omitempty"`
}

// ApplyEdits applies edits in order. Each edit sees the result of the previous one.
func ApplyEdits(content string, edits []Edit) (string, error) {
	for i, e := range edits {
		switch e.Type {
		case EditChar:
			content = applyChar(content, e)
		case EditLine:
			content = applyLine(content, e)
		default:
			return "", fmt.Errorf("edit %d: unknown type %q", i, e.Type)
		}
	}
	return content, nil
}

func applyChar(content string, e Edit) string {
	runes := []rune(content)
	start := clamp(e.Range.Start, 0, len(runes))
	end := clamp(e.Range.End, start, len(runes))
	return string(runes[:start]) + e.Text + string(runes[end:])
}

func applyLine(content string, e Edit) string {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	start := clamp(e.Range.StartLine, 1, len(lines)+1)
	end := clamp(e.Range.EndLine, start, len(lines)+1)
	insert := strings.Split(strings.ReplaceAll(e.Text, "\r\n", "\n"), "\n")

	next := make([]string, 0, len(lines)+len(insert))
	next = append(next, lines[:start-1]...)
	next = append(next, insert...)
	next = append(next, lines[min(end-1, len(lines)):]...)
	return strings.Join(next, "\n")
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// Stats counts the lines changed between two versions of a file.
type Stats struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
}

// Diff computes line-level change counts.
func Diff(before, after string) Stats {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var st Stats
	for _, d := range diffs {
		n := strings.Count(d.Text, "\n")
		if !strings.HasSuffix(d.Text, "\n") && d.Text != "" {
			n++
		}
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			st.Added += n
		case diffmatchpatch.DiffDelete:
			st.Removed += n
		case diffmatchpatch.DiffEqual:
		}
	}
	return st
}

// Change describes the outcome of Editor.ApplyEdits.
type Change struct {
	File  workspace.CodeFile
	Edits int
	Stats
}

// ApplyEdits applies edits to the active file atomically: on error nothing changes.
func (e *Editor) ApplyEdits(edits []Edit) (Change, error) {
	var before string
	f, err := e.update(func(content string) (string, error) {
		before = content
		return ApplyEdits(content, edits)
	})
	if err != nil {
		return Change{}, err
	}
	return Change{File: f, Edits: len(edits), Stats: Diff(before, f.Content)}, nil
}
