package lesson

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// Limits of the document schema.
const (
	MaxTitle       = 200
	MaxMarkdown    = 20000
	MaxPrompt      = 1000
	MinOptions     = 2
	MaxOptions     = 8
	MinQuestions   = 1
	MaxQuestions   = 20
	MaxLabel       = 200
	MinEmbedHeight = 200
	MaxEmbedHeight = 1200
	MaxTags        = 12
	MaxBlocks      = 200
)

var (
	idPattern  = regexp.MustCompile(`^[a-z0-9-]+$`)
	refPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

type issues []string

func (is *issues) addf(path, format string, args ...any) {
	if path == "" {
		path = "root"
	}
	*is = append(*is, path+": "+fmt.Sprintf(format, args...))
}

func join(path string, elem any) string {
	s := fmt.Sprint(elem)
	if path == "" {
		return s
	}
	return path + "." + s
}

func (is *issues) length(path, v string, minimum, maximum int) {
	if n := utf8.RuneCountInString(v); n < minimum || n > maximum {
		is.addf(path, "must be %d to %d characters, got %d", minimum, maximum, n)
	}
}

func (is *issues) id(path, v string) {
	if !idPattern.MatchString(v) {
		is.addf(path, "id must be lowercase, numbers, and hyphens only")
	}
}

// Validate returns one message per violated constraint, each prefixed with the path
// of the offending field. A valid document yields no issues.
func Validate(d Document) []string {
	var is issues
	validateHeader(&is, d)
	for i, b := range d.Blocks {
		validateBlock(&is, join("blocks", i), b)
	}
	validateIDs(&is, d.Blocks)
	return is
}

func validateHeader(is *issues, d Document) {
	is.length("title", d.Title, 1, MaxTitle)
	if d.Version < 1 {
		is.addf("version", "must be an integer >= 1, got %d", d.Version)
	}
	if d.Metadata != nil && len(d.Metadata.Tags) > MaxTags {
		is.addf("metadata.tags", "must have at most %d items, got %d", MaxTags, len(d.Metadata.Tags))
	}
	if d.Blocks == nil {
		is.addf("blocks", "required")
	}
	if len(d.Blocks) > MaxBlocks {
		is.addf("blocks", "must have at most %d items, got %d", MaxBlocks, len(d.Blocks))
	}
}

// validateIDs enforces that every interactive block has an id unique in the document.
func validateIDs(is *issues, blocks []Block) {
	seen := make(map[string]bool, len(blocks))
	for _, b := range blocks {
		if b == nil || b.Type() == BlockText {
			continue
		}
		switch id := b.BlockID(); {
		case id == "":
			is.addf("blocks", "%s block requires an id", b.Type())
		case seen[id]:
			is.addf("blocks", "duplicate id: %s", id)
		default:
			seen[id] = true
		}
	}
}

// ValidateBlock checks a single block in isolation.
func ValidateBlock(b Block) []string {
	var is issues
	validateBlock(&is, "", b)
	return is
}

func validateBlock(is *issues, path string, b Block) {
	switch v := b.(type) {
	case TextBlock:
		is.length(join(path, "md"), v.MD, 1, MaxMarkdown)
	case QuizBlock:
		is.id(join(path, "id"), v.ID)
		if n := len(v.Questions); n < MinQuestions || n > MaxQuestions {
			is.addf(join(path, "questions"), "must have %d to %d items, got %d", MinQuestions, MaxQuestions, n)
		}
		for i, q := range v.Questions {
			qp := join(join(path, "questions"), i)
			is.id(join(qp, "id"), q.ID)
			is.length(join(qp, "prompt"), q.Prompt, 1, MaxPrompt)
			if n := len(q.Options); n < MinOptions || n > MaxOptions {
				is.addf(join(qp, "options"), "must have %d to %d items, got %d", MinOptions, MaxOptions, n)
			}
		}
	case InputBlock:
		is.id(join(path, "id"), v.ID)
		is.length(join(path, "label"), v.Label, 1, MaxLabel)
		if v.InputType != InputText && v.InputType != InputNumber {
			is.addf(join(path, "inputType"), "must be one of text, number; got %q", v.InputType)
		}
	case EmbedBlock:
		is.id(join(path, "id"), v.ID)
		switch v.Provider {
		case ProviderCodePen, ProviderStackBlitz, ProviderJSFiddle:
		default:
			is.addf(join(path, "provider"), "must be one of codepen, stackblitz, jsfiddle; got %q", v.Provider)
		}
		if !refPattern.MatchString(v.Ref) {
			is.addf(join(path, "ref"), "invalid provider reference")
		}
		if v.Height < MinEmbedHeight || v.Height > MaxEmbedHeight {
			is.addf(join(path, "height"), "must be between %d and %d, got %d", MinEmbedHeight, MaxEmbedHeight, v.Height)
		}
	case nil:
		is.addf(path, "required")
	default:
		is.addf(join(path, "type"), "unsupported block %T", b)
	}
}
