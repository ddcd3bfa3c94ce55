package conversation

import (
	"fmt"
	"strings"
)

// NoContextSummary is returned for a session without history.
const NoContextSummary = "这是对话的开始，没有历史上下文。"

// Composer renders the session into prompt text.
type Composer struct{}

func NewComposer() *Composer {
	return &Composer{}
}

// Summarize lists entity counts, then the history newest first.
func (c *Composer) Summarize(sess *Session) string {
	sess.mu.Lock()
	history := sess.history.Entries()
	entities := sess.entitiesLocked()
	sess.mu.Unlock()

	if len(history) == 0 {
		return NoContextSummary
	}

	var lines []string
	if len(entities) > 0 {
		pairs := make([]string, 0, len(entities))
		for _, e := range entities {
			pairs = append(pairs, fmt.Sprintf("%s:%d", e.Name, e.Count))
		}
		lines = append(lines, "当前对话涉及的实体: "+strings.Join(pairs, ", "))
	}

	lines = append(lines, "最近的对话历史:")
	for i := len(history) - 1; i >= 0; i-- {
		n := len(history) - i
		lines = append(lines, fmt.Sprintf("  [%d] 用户: %s", n, history[i].Utterance))
		lines = append(lines, fmt.Sprintf("      SQL: %s", history[i].SQL))
	}
	return strings.Join(lines, "\n")
}

// Compose places the context block before the question block.
func (c *Composer) Compose(resolved, summary string) string {
	return fmt.Sprintf("基于以下对话上下文:\n%s\n\n用户的新问题是:\n%s\n\n请综合考虑上下文信息生成SQL。", summary, resolved)
}
