package rag

import (
	"fmt"
	"strings"
)

const (
	contextPlaceholder  = "{context}"
	questionPlaceholder = "{question}"
)

// DefaultPromptTemplate keeps the instructions short; the default chat model
// is a 0.5B parameter model.
const DefaultPromptTemplate = `Context information is below.
---------------------
{context}
---------------------
Given the context information and not prior knowledge, answer the query.
Query: {question}
Answer:`

// PromptTemplate is a string with exactly one {context} and one {question}
// placeholder.
type PromptTemplate struct {
	text string
}

// NewPromptTemplate validates text and returns a template.
func NewPromptTemplate(text string) (*PromptTemplate, error) {
	for _, p := range []string{contextPlaceholder, questionPlaceholder} {
		if n := strings.Count(text, p); n != 1 {
			return nil, fmt.Errorf("%w: %s must appear exactly once, found %d", ErrInvalidTemplate, p, n)
		}
	}
	return &PromptTemplate{text: text}, nil
}

// MustPromptTemplate is NewPromptTemplate for templates known at compile time.
func MustPromptTemplate(text string) *PromptTemplate {
	t, err := NewPromptTemplate(text)
	if err != nil {
		panic(err)
	}
	return t
}

// Render substitutes both placeholders. Substituted values are inserted
// verbatim and never re-scanned, so a question containing "{context}" stays
// as typed.
func (t *PromptTemplate) Render(context, question string) string {
	ci := strings.Index(t.text, contextPlaceholder)
	qi := strings.Index(t.text, questionPlaceholder)

	first, firstVal, firstLen := ci, context, len(contextPlaceholder)
	second, secondVal, secondLen := qi, question, len(questionPlaceholder)
	if qi < ci {
		first, firstVal, firstLen, second, secondVal, secondLen = second, secondVal, secondLen, first, firstVal, firstLen
	}

	var b strings.Builder
	b.Grow(len(t.text) + len(context) + len(question))
	b.WriteString(t.text[:first])
	b.WriteString(firstVal)
	b.WriteString(t.text[first+firstLen : second])
	b.WriteString(secondVal)
	b.WriteString(t.text[second+secondLen:])
	return b.String()
}

// String returns the raw template text.
func (t *PromptTemplate) String() string {
	return t.text
}
