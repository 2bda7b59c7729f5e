package lesson

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSource = `title: Loops
version: 2
metadata:
  tags: [python, basics]
blocks:
  - type: text
    md: |
      # For loops
      Iterate over a range.
  - type: quiz
    id: q1
    title: Check yourself
    questions:
      - id: q1-a
        prompt: What does range(3) yield?
        options: ["0 1 2", "1 2 3"]
        answer: "0 1 2"
        explanation: range starts at zero
  - type: input
    id: guess
    label: Your guess
  - type: embed
    id: demo
    provider: codepen
    ref: abc_123
`

func TestParse_AppliesDefaults(t *testing.T) {
	doc, problems := Parse(sampleSource)
	require.Empty(t, problems)
	require.NotNil(t, doc)

	assert.Equal(t, "Loops", doc.Title)
	assert.Equal(t, 2, doc.Version)
	assert.Equal(t, []string{"python", "basics"}, doc.Metadata.Tags)
	require.Len(t, doc.Blocks, 4)
	assert.Equal(t, "# For loops\nIterate over a range.\n", doc.Blocks[0].(TextBlock).MD)
	assert.Equal(t, InputText, doc.Blocks[2].(InputBlock).InputType)
	assert.Equal(t, DefaultEmbedHeight, doc.Blocks[3].(EmbedBlock).Height)
	assert.Equal(t, []string{"q1", "guess", "demo"}, doc.IDs())
}

func TestSerialize_RoundTrip(t *testing.T) {
	doc, problems := Parse(sampleSource)
	require.Empty(t, problems)

	first, err := Serialize(*doc)
	require.NoError(t, err)
	again, problems := Parse(first)
	require.Empty(t, problems)
	assert.Equal(t, doc, again)

	second, err := Serialize(*again)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSerialize_SimpleDocument(t *testing.T) {
	d := Document{Title: "Notes", Version: 1, Blocks: []Block{TextBlock{MD: "hi"}}}
	out, err := Serialize(d)
	require.NoError(t, err)
	assert.Contains(t, out, "type: text")

	back, problems := Parse(out)
	require.Empty(t, problems)
	assert.Equal(t, d, *back)
}

func TestSerialize_Empty(t *testing.T) {
	out, err := Serialize(EmptyDocument())
	require.NoError(t, err)
	assert.Equal(t, EmptyTemplate, out)

	out, err = Serialize(Document{Title: "Notes", Version: 1})
	require.NoError(t, err)
	assert.Contains(t, out, "blocks: []")
}

func TestParse_ReportsEveryViolation(t *testing.T) {
	src := `version: 0
blocks:
  - type: quiz
    id: Q1
    questions:
      - id: a
        prompt: pick
        options: [only]
        answer: only
  - type: embed
    id: e
    provider: gist
    ref: "no spaces"
    height: 100
`
	doc, problems := Parse(src)
	assert.Nil(t, doc)
	assert.Contains(t, problems, "title: must be 1 to 200 characters, got 0")
	assert.Contains(t, problems, "version: must be an integer >= 1, got 0")
	assert.Contains(t, problems, "blocks.0.id: id must be lowercase, numbers, and hyphens only")
	assert.Contains(t, problems, "blocks.0.questions.0.options: must have 2 to 8 items, got 1")
	assert.Contains(t, problems, `blocks.1.provider: must be one of codepen, stackblitz, jsfiddle; got "gist"`)
	assert.Contains(t, problems, "blocks.1.ref: invalid provider reference")
	assert.Contains(t, problems, "blocks.1.height: must be between 200 and 1200, got 100")
}

func TestParse_DuplicateIDs(t *testing.T) {
	src := `title: Notes
version: 1
blocks:
  - {type: input, id: name, label: Name}
  - {type: input, id: name, label: Again}
`
	doc, problems := Parse(src)
	assert.Nil(t, doc)
	assert.Equal(t, []string{"blocks: duplicate id: name"}, problems)
}

func TestParse_NeverPanics(t *testing.T) {
	inputs := []string{
		"",
		"::: [",
		"- a\n- b",
		"title: [1, 2]\nversion: 1\nblocks: []",
		"title: Notes\nversion: abc\nblocks: []",
		"title: Notes\nversion: 1\nblocks: nope",
		"title: Notes\nversion: 1\nblocks: [42]",
		"title: Notes\nversion: 1\nblocks: [{type: video}]",
	}
	for _, in := range inputs {
		doc, problems := Parse(in)
		assert.Nil(t, doc, in)
		assert.NotEmpty(t, problems, in)
	}
}

func TestParse_TypeErrorsAreIssues(t *testing.T) {
	_, problems := Parse("title: Notes\nversion: abc\nblocks: []")
	require.NotEmpty(t, problems)
	assert.True(t, strings.HasPrefix(problems[0], "root: "), problems[0])
	assert.Contains(t, problems[0], "cannot unmarshal")
}

func TestParseBlock(t *testing.T) {
	b, problems := ParseBlock("type: text\nmd: hello")
	require.Empty(t, problems)
	assert.Equal(t, TextBlock{MD: "hello"}, b)

	b, problems = ParseBlock("- type: input\n  id: age\n  label: Age\n  inputType: number")
	require.Empty(t, problems)
	assert.Equal(t, InputBlock{ID: "age", Label: "Age", InputType: InputNumber}, b)

	_, problems = ParseBlock("- type: text\n  md: a\n- type: text\n  md: b")
	assert.Equal(t, []string{"root: expected a single block, got a list of 2"}, problems)

	_, problems = ParseBlock("type: slides")
	assert.Equal(t, []string{"type: must be one of text, quiz, input, embed"}, problems)

	_, problems = ParseBlock("type: input\nid: x\nlabel: X\ninputType: date")
	assert.Equal(t, []string{`inputType: must be one of text, number; got "date"`}, problems)
}

func TestParseBlock_EmptyAnswerAllowed(t *testing.T) {
	b, problems := ParseBlock("type: quiz\nid: q1\nquestions:\n  - id: a\n    prompt: Pick one\n    options: [x, y]\n    answer: \"\"")
	require.Empty(t, problems)
	quiz, ok := b.(QuizBlock)
	require.True(t, ok)
	require.Len(t, quiz.Questions, 1)
	assert.Empty(t, quiz.Questions[0].Answer)
}

func TestAppend_DuplicateIDLeavesDocumentUntouched(t *testing.T) {
	doc := Document{Title: "Notes", Version: 1, Blocks: []Block{
		QuizBlock{ID: "q1", Questions: []Question{{ID: "a", Prompt: "?", Options: []string{"x", "y"}, Answer: "x"}}},
	}}
	dup := QuizBlock{ID: "q1", Questions: []Question{{ID: "b", Prompt: "?", Options: []string{"x", "y"}, Answer: "y"}}}

	got, problems := Append(doc, dup)
	assert.Equal(t, []string{"blocks: duplicate id: q1"}, problems)
	assert.Len(t, got.Blocks, 1)
	assert.Len(t, doc.Blocks, 1)

	got, problems = Append(doc, EmbedBlock{ID: "pen", Provider: ProviderJSFiddle, Ref: "x1"})
	require.Empty(t, problems)
	require.Len(t, got.Blocks, 2)
	assert.Equal(t, DefaultEmbedHeight, got.Blocks[1].(EmbedBlock).Height)
	assert.Len(t, doc.Blocks, 1)
}

func TestStore(t *testing.T) {
	var changes []string
	s := NewStore("", WithOnChange(func(text string) { changes = append(changes, text) }))

	doc, problems := s.Document()
	require.Empty(t, problems)
	assert.Equal(t, EmptyDocument(), *doc)

	b, problems := s.AppendBlock("type: input\nid: name\nlabel: Name")
	require.Empty(t, problems)
	assert.Equal(t, BlockInput, b.Type())
	require.Len(t, changes, 1)

	before := s.Text()
	_, problems = s.AppendBlock("[{type: input, id: name, label: Again}]")
	assert.Equal(t, []string{"blocks: duplicate id: name"}, problems)
	assert.Equal(t, before, s.Text())

	_, problems = s.Replace("title: ''\nversion: 1\nblocks: []")
	assert.NotEmpty(t, problems)
	assert.Equal(t, before, s.Text())

	doc, problems = s.Replace("title: Fresh\nversion: 3\nblocks: []")
	require.Empty(t, problems)
	assert.Equal(t, "Fresh", doc.Title)
	assert.Equal(t, "title: Fresh\nversion: 3\nblocks: []\n", s.Text())

	s.AppendText("oops: [")
	_, problems = s.AppendBlock("type: text\nmd: hi")
	require.NotEmpty(t, problems)
	assert.True(t, strings.HasPrefix(problems[0], "existing document: "), problems[0])
	assert.Len(t, changes, 3)
}

func FuzzParse(f *testing.F) {
	f.Add(sampleSource)
	f.Add(EmptyTemplate)
	f.Add("- type: text")
	f.Fuzz(func(t *testing.T, src string) {
		doc, problems := Parse(src)
		if doc == nil {
			assert.NotEmpty(t, problems)
			return
		}
		assert.Empty(t, problems)
		out, err := Serialize(*doc)
		require.NoError(t, err)
		again, problems := Parse(out)
		require.Empty(t, problems)
		assert.Equal(t, doc, again)
	})
}
