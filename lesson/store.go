package lesson

import (
	"strings"
	"sync"
)

// Store holds the text of the lesson editor. The text is free-form: raw edits are
// allowed, while the structured operations parse and re-serialize the document.
type Store struct {
	mu       sync.RWMutex
	text     string
	onChange func(string)
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithOnChange registers fn to run after every change with the new text.
func WithOnChange(fn func(string)) StoreOption {
	return func(s *Store) { s.onChange = fn }
}

// NewStore returns a store holding initial.
func NewStore(initial string, opts ...StoreOption) *Store {
	s := &Store{text: initial}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Text returns the current text.
func (s *Store) Text() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.text
}

// SetText replaces the text without validation.
func (s *Store) SetText(text string) {
	s.mu.Lock()
	s.text = text
	s.mu.Unlock()
	s.changed(text)
}

// AppendText appends raw text.
func (s *Store) AppendText(text string) {
	s.mu.Lock()
	s.text += text
	next := s.text
	s.mu.Unlock()
	s.changed(next)
}

// Document parses the current text. Blank text is the empty document.
func (s *Store) Document() (*Document, []string) {
	return parseOrEmpty(s.Text())
}

// Replace validates source as a whole document and stores its serialized form.
// On failure the stored text is left untouched.
func (s *Store) Replace(source string) (*Document, []string) {
	doc, problems := Parse(source)
	if len(problems) > 0 {
		return nil, problems
	}
	out, err := Serialize(*doc)
	if err != nil {
		return nil, []string{"root: " + err.Error()}
	}
	s.SetText(out)
	return doc, nil
}

// AppendBlock parses blockSource and appends it to the stored document. Problems
// with the stored document are prefixed with "existing document: ".
func (s *Store) AppendBlock(blockSource string) (Block, []string) {
	b, out, problems := s.appendBlock(blockSource)
	if len(problems) > 0 {
		return nil, problems
	}
	s.changed(out)
	return b, nil
}

func (s *Store) appendBlock(blockSource string) (Block, string, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, problems := parseOrEmpty(s.text)
	if len(problems) > 0 {
		for i, p := range problems {
			problems[i] = "existing document: " + p
		}
		return nil, "", problems
	}
	b, problems := ParseBlock(blockSource)
	if len(problems) > 0 {
		return nil, "", problems
	}
	next, problems := Append(*doc, b)
	if len(problems) > 0 {
		return nil, "", problems
	}
	out, err := Serialize(next)
	if err != nil {
		return nil, "", []string{"root: " + err.Error()}
	}
	s.text = out
	return next.Blocks[len(next.Blocks)-1], out, nil
}

func (s *Store) changed(text string) {
	if s.onChange != nil {
		s.onChange(text)
	}
}

func parseOrEmpty(text string) (*Document, []string) {
	if strings.TrimSpace(text) == "" {
		d := EmptyDocument()
		return &d, nil
	}
	return Parse(text)
}
