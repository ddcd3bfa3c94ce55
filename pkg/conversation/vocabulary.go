package conversation

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// Vocabulary matches known schema nouns inside free text.
type Vocabulary struct {
	pattern   *regexp.Regexp
	canonical map[string]string
}

// NewVocabulary compiles words into one case-insensitive alternation, longest
// first so that 体检日期 wins over 日期. ASCII words only match on word boundaries.
func NewVocabulary(words []string) *Vocabulary {
	v := &Vocabulary{canonical: make(map[string]string, len(words))}

	unique := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		key := strings.ToLower(w)
		if _, seen := v.canonical[key]; seen {
			continue
		}
		v.canonical[key] = w
		unique = append(unique, w)
	}
	if len(unique) == 0 {
		return v
	}

	sort.SliceStable(unique, func(i, j int) bool {
		return len([]rune(unique[i])) > len([]rune(unique[j]))
	})

	alts := make([]string, 0, len(unique))
	for _, w := range unique {
		quoted := regexp.QuoteMeta(w)
		if isASCIIWord(w) {
			quoted = `\b` + quoted + `\b`
		}
		alts = append(alts, quoted)
	}
	v.pattern = regexp.MustCompile(`(?i)(?:` + strings.Join(alts, "|") + `)`)
	return v
}

// Find returns the canonical form of every match in first-seen order without duplicates.
func (v *Vocabulary) Find(text string) []string {
	if v.pattern == nil || text == "" {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	for _, m := range v.pattern.FindAllString(text, -1) {
		word, ok := v.canonical[strings.ToLower(m)]
		if !ok || seen[word] {
			continue
		}
		seen[word] = true
		out = append(out, word)
	}
	return out
}

func isASCIIWord(w string) bool {
	for _, r := range w {
		if r > unicode.MaxASCII || !(r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return false
		}
	}
	return true
}
