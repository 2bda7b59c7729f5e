package lesson

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Parse decodes and validates a lesson document. It never panics: on failure it
// returns a nil document and at least one "path: message" issue.
func Parse(source string) (doc *Document, problems []string) {
	defer func() {
		if r := recover(); r != nil {
			doc, problems = nil, []string{fmt.Sprintf("root: %v", r)}
		}
	}()

	n, err := root(source)
	if err != nil {
		return nil, []string{err.Error()}
	}
	if n == nil || n.Kind != yaml.MappingNode {
		return nil, []string{"root: expected a mapping"}
	}

	var raw struct {
		Title    string      `yaml:"title"`
		Version  int         `yaml:"version"`
		Metadata *Metadata   `yaml:"metadata"`
		Blocks   []yaml.Node `yaml:"blocks"`
	}
	var is issues
	decode(n, &raw, "", &is)

	d := Document{Title: raw.Title, Version: raw.Version, Metadata: raw.Metadata}
	if raw.Blocks != nil {
		d.Blocks = make([]Block, 0, len(raw.Blocks))
	}
	for i := range raw.Blocks {
		if b := decodeBlock(&raw.Blocks[i], join("blocks", i), &is); b != nil {
			d.Blocks = append(d.Blocks, b)
		}
	}
	validateHeader(&is, d)
	validateIDs(&is, d.Blocks)
	if len(is) > 0 {
		return nil, is
	}
	return &d, nil
}

// ParseBlock decodes a single block. A list holding exactly one block is unwrapped
// first, since callers often send one by mistake.
func ParseBlock(source string) (b Block, problems []string) {
	defer func() {
		if r := recover(); r != nil {
			b, problems = nil, []string{fmt.Sprintf("root: %v", r)}
		}
	}()

	n, err := root(source)
	if err != nil {
		return nil, []string{err.Error()}
	}
	if n != nil && n.Kind == yaml.SequenceNode {
		if len(n.Content) != 1 {
			return nil, []string{fmt.Sprintf("root: expected a single block, got a list of %d", len(n.Content))}
		}
		n = n.Content[0]
	}
	if n == nil {
		return nil, []string{"root: expected a mapping"}
	}
	var is issues
	b = decodeBlock(n, "", &is)
	if len(is) > 0 {
		return nil, is
	}
	return b, nil
}

func root(source string) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(source), &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, nil
	}
	return doc.Content[0], nil
}

func decode(n *yaml.Node, v any, path string, is *issues) bool {
	err := n.Decode(v)
	if err == nil {
		return true
	}
	var te *yaml.TypeError
	if errors.As(err, &te) {
		for _, msg := range te.Errors {
			is.addf(path, "%s", msg)
		}
		return false
	}
	is.addf(path, "%s", err.Error())
	return false
}

// decodeBlock returns nil when the block could not be decoded or is invalid.
func decodeBlock(n *yaml.Node, path string, is *issues) Block {
	if n.Kind != yaml.MappingNode {
		is.addf(path, "expected a mapping")
		return nil
	}
	var probe struct {
		Type BlockType `yaml:"type"`
	}
	if !decode(n, &probe, path, is) {
		return nil
	}

	var b Block
	switch probe.Type {
	case BlockText:
		b = decodeAs[TextBlock](n, path, is)
	case BlockQuiz:
		b = decodeAs[QuizBlock](n, path, is)
	case BlockInput:
		b = decodeAs[InputBlock](n, path, is)
	case BlockEmbed:
		b = decodeAs[EmbedBlock](n, path, is)
	default:
		is.addf(join(path, "type"), "must be one of text, quiz, input, embed")
		return nil
	}
	if b == nil {
		return nil
	}
	b = withDefaults(b)
	before := len(*is)
	validateBlock(is, path, b)
	if len(*is) > before {
		return nil
	}
	return b
}

func decodeAs[T Block](n *yaml.Node, path string, is *issues) Block {
	var v T
	if !decode(n, &v, path, is) {
		return nil
	}
	return v
}
