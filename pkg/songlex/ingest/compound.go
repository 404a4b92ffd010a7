package ingest

import (
	"sort"
	"strings"
	"unicode"
)

// CompoundFuser joins multi-word descriptors ("high pitched",
// "high-pitched") into one hyphenated word so the tokenizer keeps them
// together.
type CompoundFuser struct {
	dict   map[string]DictEntry // phrase key (space separated) → entry
	maxLen int
}

// DictEntry represents a dictionary entry for a compound descriptor
type DictEntry struct {
	Canonical string
	Category  string
	Variants  []string
}

// NewCompoundFuser creates a fuser with the given dictionary
func NewCompoundFuser(entries []DictEntry) *CompoundFuser {
	dict := make(map[string]DictEntry)
	maxLen := 1
	for _, e := range entries {
		canonical := phraseKey(e.Canonical)
		if canonical == "" {
			continue
		}
		dict[canonical] = e
		if l := phraseLen(canonical); l > maxLen {
			maxLen = l
		}
		for _, v := range e.Variants {
			variant := phraseKey(v)
			if variant == "" {
				continue
			}
			dict[variant] = e
			if l := phraseLen(variant); l > maxLen {
				maxLen = l
			}
		}
	}
	return &CompoundFuser{dict: dict, maxLen: maxLen}
}

type word struct {
	lead, core, trail string
}

// Fuse applies greedy longest-match over the words of text. A matched run
// is replaced by the hyphenated canonical form; punctuation before the
// first word and after the last word is kept.
func (f *CompoundFuser) Fuse(text string) string {
	if len(f.dict) == 0 {
		return text
	}

	fields := strings.Fields(text)
	words := make([]word, len(fields))
	for i, fld := range fields {
		words[i] = splitWord(fld)
	}

	out := make([]string, 0, len(fields))
	i := 0
	for i < len(words) {
		matchLen := 0
		var entry DictEntry

		maxPhrase := f.maxLen
		if remaining := len(words) - i; maxPhrase > remaining {
			maxPhrase = remaining
		}
		for n := maxPhrase; n >= 1; n-- {
			// inner punctuation ("high, pitched") breaks a phrase
			if n > 1 && !contiguous(words[i:i+n]) {
				continue
			}
			if e, ok := f.dict[runKey(words[i:i+n])]; ok {
				entry, matchLen = e, n
				break
			}
		}

		if matchLen == 0 {
			out = append(out, fields[i])
			i++
			continue
		}

		first, last := words[i], words[i+matchLen-1]
		out = append(out, first.lead+Hyphenate(entry.Canonical)+last.trail)
		i += matchLen
	}
	return strings.Join(out, " ")
}

// Compounds returns the hyphenated canonical forms, sorted.
func (f *CompoundFuser) Compounds() []string {
	seen := make(map[string]struct{})
	for _, e := range f.dict {
		seen[Hyphenate(e.Canonical)] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Category returns the category of the compound a hyphenated form belongs to.
func (f *CompoundFuser) Category(compound string) (string, bool) {
	e, ok := f.dict[phraseKey(compound)]
	if !ok {
		return "", false
	}
	return e.Category, true
}

// Hyphenate lowercases a phrase and joins its words with hyphens.
func Hyphenate(phrase string) string {
	return strings.ReplaceAll(phraseKey(phrase), " ", "-")
}

func splitWord(s string) word {
	isCore := func(r rune) bool { return unicode.IsLetter(r) || unicode.IsNumber(r) }
	start := strings.IndexFunc(s, isCore)
	if start < 0 {
		return word{lead: s}
	}
	end := strings.LastIndexFunc(s, isCore)
	end += len(string([]rune(s[end:])[0]))
	return word{lead: s[:start], core: strings.ToLower(s[start:end]), trail: s[end:]}
}

func contiguous(ws []word) bool {
	for i, w := range ws {
		if w.core == "" {
			return false
		}
		if i > 0 && w.lead != "" {
			return false
		}
		if i < len(ws)-1 && w.trail != "" {
			return false
		}
	}
	return true
}

func runKey(ws []word) string {
	parts := make([]string, len(ws))
	for i, w := range ws {
		parts[i] = w.core
	}
	return phraseKey(strings.Join(parts, " "))
}

// phraseKey folds case and treats hyphens as word breaks.
func phraseKey(phrase string) string {
	phrase = strings.ToLower(strings.ReplaceAll(phrase, "-", " "))
	return strings.Join(strings.Fields(phrase), " ")
}

func phraseLen(phrase string) int {
	if phrase == "" {
		return 1
	}
	return len(strings.Fields(phrase))
}
