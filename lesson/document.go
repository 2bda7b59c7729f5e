// Package lesson implements the structured lesson document: a versioned YAML file of
// typed blocks (prose, quizzes, inputs and embeds) with ids unique across the document.
package lesson

import (
	"bytes"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

// BlockType discriminates block variants.
type BlockType string

const (
	BlockText  BlockType = "text"
	BlockQuiz  BlockType = "quiz"
	BlockInput BlockType = "input"
	BlockEmbed BlockType = "embed"
)

// Input types.
const (
	InputText   = "text"
	InputNumber = "number"
)

// Embed providers.
const (
	ProviderCodePen    = "codepen"
	ProviderStackBlitz = "stackblitz"
	ProviderJSFiddle   = "jsfiddle"
)

// DefaultEmbedHeight is used when an embed omits its height.
const DefaultEmbedHeight = 360

// EmptyTemplate is the source of a document with no blocks.
const EmptyTemplate = "title: Notes\nversion: 1\nblocks: []\n"

// Document is a lesson. Values are never mutated in place: Append and the Store
// build a new Document and re-serialize it.
type Document struct {
	Title    string    `yaml:"title"`
	Version  int       `yaml:"version"`
	Metadata *Metadata `yaml:"metadata,omitempty"`
	Blocks   []Block   `yaml:"blocks"`
}

// Metadata is optional document metadata.
type Metadata struct {
	Tags []string `yaml:"tags,omitempty"`
}

// EmptyDocument returns the document described by EmptyTemplate.
func EmptyDocument() Document {
	return Document{Title: "Notes", Version: 1, Blocks: []Block{}}
}

// Block is one of TextBlock, QuizBlock, InputBlock or EmbedBlock.
type Block interface {
	Type() BlockType
	// BlockID is empty for text blocks.
	BlockID() string
}

// TextBlock is markdown prose.
type TextBlock struct {
	MD string `yaml:"md"`
}

// QuizBlock is a multiple choice quiz.
type QuizBlock struct {
	ID        string     `yaml:"id"`
	Title     string     `yaml:"title,omitempty"`
	Questions []Question `yaml:"questions"`
}

// Question is one quiz question. Answer is the text of the correct option.
type Question struct {
	ID          string   `yaml:"id"`
	Prompt      string   `yaml:"prompt"`
	Options     []string `yaml:"options"`
	Answer      string   `yaml:"answer"`
	Explanation string   `yaml:"explanation,omitempty"`
}

// InputBlock asks the learner for a value.
type InputBlock struct {
	ID          string `yaml:"id"`
	Label       string `yaml:"label"`
	InputType   string `yaml:"inputType"`
	Placeholder string `yaml:"placeholder,omitempty"`
}

// EmbedBlock embeds a snippet hosted by a code playground.
type EmbedBlock struct {
	ID       string `yaml:"id"`
	Provider string `yaml:"provider"`
	Ref      string `yaml:"ref"`
	Height   int    `yaml:"height"`
}

func (TextBlock) Type() BlockType  { return BlockText }
func (QuizBlock) Type() BlockType  { return BlockQuiz }
func (InputBlock) Type() BlockType { return BlockInput }
func (EmbedBlock) Type() BlockType { return BlockEmbed }

func (TextBlock) BlockID() string    { return "" }
func (b QuizBlock) BlockID() string  { return b.ID }
func (b InputBlock) BlockID() string { return b.ID }
func (b EmbedBlock) BlockID() string { return b.ID }

// tagged writes the type discriminator ahead of the block fields.
type tagged[T any] struct {
	Type BlockType `yaml:"type"`
	Body T         `yaml:",inline"`
}

func (b TextBlock) MarshalYAML() (any, error) {
	type body TextBlock
	return tagged[body]{Type: BlockText, Body: body(b)}, nil
}

func (b QuizBlock) MarshalYAML() (any, error) {
	type body QuizBlock
	return tagged[body]{Type: BlockQuiz, Body: body(b)}, nil
}

func (b InputBlock) MarshalYAML() (any, error) {
	type body InputBlock
	if b.InputType == "" {
		b.InputType = InputText
	}
	return tagged[body]{Type: BlockInput, Body: body(b)}, nil
}

func (b EmbedBlock) MarshalYAML() (any, error) {
	type body EmbedBlock
	if b.Height == 0 {
		b.Height = DefaultEmbedHeight
	}
	return tagged[body]{Type: BlockEmbed, Body: body(b)}, nil
}

func withDefaults(b Block) Block {
	switch v := b.(type) {
	case InputBlock:
		if v.InputType == "" {
			v.InputType = InputText
		}
		return v
	case EmbedBlock:
		if v.Height == 0 {
			v.Height = DefaultEmbedHeight
		}
		return v
	}
	return b
}

// Serialize renders d as YAML with two-space indentation. Serializing a parsed
// document and parsing the output yields an equal document.
func Serialize(d Document) (string, error) {
	if d.Blocks == nil {
		d.Blocks = []Block{}
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return "", fmt.Errorf("serialize lesson: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("serialize lesson: %w", err)
	}
	return buf.String(), nil
}

// Append returns doc with b added at the end. When the result would break an
// invariant (for example a duplicate id) it returns doc unchanged with the issues.
func Append(doc Document, b Block) (Document, []string) {
	if b == nil {
		return doc, []string{"block: required"}
	}
	next := doc
	next.Blocks = append(slices.Clone(doc.Blocks), withDefaults(b))
	if issues := Validate(next); len(issues) > 0 {
		return doc, issues
	}
	return next, nil
}

// IDs lists the ids of interactive blocks in document order.
func (d Document) IDs() []string {
	var ids []string
	for _, b := range d.Blocks {
		if id := b.BlockID(); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
