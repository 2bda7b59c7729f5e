package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/skosovsky/tutorkit"
)

func (ts *Toolset) documentTools(b *builder) {
	add(b, "get_document_context", "Return the lesson document YAML and any problems with it.",
		ts.getDocumentContext, tutorkit.WithReadOnly())
	add(b, "set_document_text", "Replace the raw lesson document text without validation.", ts.setDocumentText)
	add(b, "append_document_text", "Append raw text to the lesson document without validation.", ts.appendDocumentText)
	add(b, "set_document", "Replace the whole lesson document with validated YAML.", ts.setDocument)
	add(b, "append_document_block", "Append one block, given as a YAML snippet, to the lesson document.", ts.appendDocumentBlock)
}

type documentContext struct {
	YAML   string   `json:"yaml"`
	Blocks int      `json:"blocks"`
	Errors []string `json:"errors,omitempty"`
}

func (ts *Toolset) getDocumentContext(_ context.Context, _ noArgs) (tutorkit.Result, error) {
	dc := documentContext{YAML: ts.deps.Notes.Text()}
	doc, problems := ts.deps.Notes.Document()
	if len(problems) > 0 {
		dc.Errors = problems
		return tutorkit.OK(fmt.Sprintf("document has %d problems", len(problems)), dc), nil
	}
	dc.Blocks = len(doc.Blocks)
	return tutorkit.OK(fmt.Sprintf("document: %d blocks", dc.Blocks), dc), nil
}

type textArgs struct {
	Text string `json:"text"`
}

func (ts *Toolset) setDocumentText(_ context.Context, in textArgs) (tutorkit.Result, error) {
	ts.deps.Notes.SetText(in.Text)
	return tutorkit.OK(fmt.Sprintf("notes set (%d chars)", len(in.Text)), nil), nil
}

func (ts *Toolset) appendDocumentText(_ context.Context, in textArgs) (tutorkit.Result, error) {
	ts.deps.Notes.AppendText(in.Text)
	return tutorkit.OK(fmt.Sprintf("notes appended (%d chars)", len(in.Text)), nil), nil
}

type yamlArgs struct {
	YAML string `json:"yaml" description:"Complete lesson document: title, version and blocks"`
}

func (ts *Toolset) setDocument(_ context.Context, in yamlArgs) (tutorkit.Result, error) {
	doc, problems := ts.deps.Notes.Replace(in.YAML)
	if len(problems) > 0 {
		return invalidDocument("invalid yaml: ", problems), nil
	}
	return tutorkit.OK(fmt.Sprintf("notes yaml set: %d blocks", len(doc.Blocks)), nil), nil
}

type blockArgs struct {
	YAML string `json:"yaml" description:"One block, e.g. type: quiz with id and questions"`
}

func (ts *Toolset) appendDocumentBlock(_ context.Context, in blockArgs) (tutorkit.Result, error) {
	block, problems := ts.deps.Notes.AppendBlock(in.YAML)
	if len(problems) > 0 {
		if dup, ok := duplicateID(problems); ok {
			return tutorkit.Result{Status: tutorkit.StatusError, Summary: dup, Data: map[string]any{"errors": problems}}, nil
		}
		return invalidDocument("block invalid: ", problems), nil
	}
	return tutorkit.OK("block appended: "+string(block.Type()), map[string]string{"id": block.BlockID()}), nil
}

func invalidDocument(prefix string, problems []string) tutorkit.Result {
	return tutorkit.Result{
		Status:  tutorkit.StatusError,
		Summary: prefix + problems[0],
		Data:    map[string]any{"errors": problems},
	}
}

func duplicateID(problems []string) (string, bool) {
	for _, p := range problems {
		if _, rest, ok := strings.Cut(p, "duplicate id: "); ok {
			return "duplicate id: " + rest, true
		}
	}
	return "", false
}
