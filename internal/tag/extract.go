package tag

import (
	"regexp"
	"strings"
)

// candidatePattern over-matches tag-shaped spans in free text; each candidate
// is confirmed with Parse before being emitted.
var candidatePattern = regexp.MustCompile(
	`@[A-Za-z]+/[^\s#:{}]+(?:#[^\s:{}]+)?(?::[0-9]+)?(?:\{[^{}]*\})?`)

// Extractor scans document text for embedded tags in first-occurrence byte
// order. It is lazy and finite; construct a new Extractor to restart.
type Extractor struct {
	text string
	pos  int
	ref  Reference
	off  int
}

// NewExtractor creates an extractor over document text
func NewExtractor(text string) *Extractor {
	return &Extractor{text: text}
}

// Next advances to the next valid tag, returning false when the text is exhausted
func (e *Extractor) Next() bool {
	for e.pos < len(e.text) {
		loc := candidatePattern.FindStringIndex(e.text[e.pos:])
		if loc == nil {
			e.pos = len(e.text)
			return false
		}

		start := e.pos + loc[0]
		candidate := trimProse(e.text[start : e.pos+loc[1]])
		e.pos = start + 1

		ref, err := Parse(candidate)
		if err != nil {
			// Prose that merely resembles a tag is skipped, not reported
			continue
		}
		e.ref = ref
		e.off = start
		e.pos = start + len(candidate)
		return true
	}
	return false
}

// Reference returns the tag matched by the last successful Next
func (e *Extractor) Reference() Reference {
	return e.ref
}

// Offset returns the byte offset of the last matched tag
func (e *Extractor) Offset() int {
	return e.off
}

// ExtractAll collects every embedded tag in document order
func ExtractAll(text string) []Reference {
	var refs []Reference
	ex := NewExtractor(text)
	for ex.Next() {
		refs = append(refs, ex.Reference())
	}
	return refs
}

// trimProse strips trailing punctuation that prose attaches to an embedded
// tag, such as the period ending a sentence. Digits and braces are never
// trimmed, so line numbers and metadata blocks stay intact.
func trimProse(candidate string) string {
	return strings.TrimRight(candidate, ".,;!?)]'\"")
}
