package conversation

import (
	"regexp"
	"strings"
)

// TopicShiftThreshold is the overlap ratio below which two turns count as a shift.
const TopicShiftThreshold = 0.3

// Stopwords never count as keywords.
var Stopwords = []string{"的", "是", "在", "和", "有", "查询", "显示", "获取"}

var keywordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

var stopwordSplitter = func() *strings.Replacer {
	pairs := make([]string, 0, 2*len(Stopwords))
	for _, w := range Stopwords {
		pairs = append(pairs, w, " ")
	}
	return strings.NewReplacer(pairs...)
}()

// Keywords returns the distinct non-stopword terms of text. Chinese runs have
// no spaces, so they are split on the stopwords themselves.
func Keywords(text string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, token := range keywordPattern.FindAllString(strings.ToLower(text), -1) {
		for _, word := range strings.Fields(stopwordSplitter.Replace(token)) {
			out[word] = struct{}{}
		}
	}
	return out
}

// topicShifted compares the keyword sets of two utterances.
func topicShifted(previous, current string) bool {
	prev := Keywords(previous)
	cur := Keywords(current)

	common := 0
	for w := range cur {
		if _, ok := prev[w]; ok {
			common++
		}
	}
	denom := len(prev)
	if denom < 1 {
		denom = 1
	}
	return float64(common)/float64(denom) < TopicShiftThreshold
}
