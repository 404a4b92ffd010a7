package ingest

import (
	"regexp"
	"strings"
)

// Placeholder tokens substituted for extracted spans.
const (
	PlaceholderOnomatopoeia = "onomatopoeia"
	PlaceholderMarker       = "marker"
)

// SpanKind distinguishes quoted transcriptions from asterisk markers.
type SpanKind string

const (
	SpanOnomatopoeia SpanKind = "onomatopoeia"
	SpanMarker       SpanKind = "marker"
)

// Span is a phonetic transcription or special marker lifted out of a
// description before tokenization.
type Span struct {
	Kind SpanKind
	Text string
}

// spanPattern matches, in one pass, "…", “…”, ‘…’ and *…* spans.
// Groups 1-3 are quoted, group 4 is asterisk-delimited.
var spanPattern = regexp.MustCompile(`"([^"]*)"|“([^”]*)”|‘([^’]*)’|\*([^*]+)\*`)

// strayMarks removes quote and asterisk characters left unbalanced.
// A lone right single quote is an apostrophe.
var strayMarks = strings.NewReplacer(
	`"`, " ",
	"“", " ",
	"”", " ",
	"‘", " ",
	"’", "'",
	"*", " ",
)

// ExtractSpans replaces every quoted or asterisk-delimited span with its
// placeholder token and returns the spans in order of appearance. The
// returned text holds no quote or asterisk characters.
func ExtractSpans(text string) (string, []Span) {
	matches := spanPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return strayMarks.Replace(text), nil
	}

	var (
		b     strings.Builder
		spans []Span
		last  int
	)
	for _, m := range matches {
		b.WriteString(text[last:m[0]])
		last = m[1]

		kind, placeholder := SpanOnomatopoeia, PlaceholderOnomatopoeia
		inner := ""
		for g := 1; g <= 4; g++ {
			if m[2*g] >= 0 {
				inner = text[m[2*g]:m[2*g+1]]
				if g == 4 {
					kind, placeholder = SpanMarker, PlaceholderMarker
				}
				break
			}
		}

		inner = strings.TrimSpace(inner)
		if inner == "" {
			b.WriteString(" ")
			continue
		}
		spans = append(spans, Span{Kind: kind, Text: inner})
		b.WriteString(" " + placeholder + " ")
	}
	b.WriteString(text[last:])

	return strayMarks.Replace(b.String()), spans
}
