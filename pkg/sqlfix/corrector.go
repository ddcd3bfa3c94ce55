// Package sqlfix repairs table references in generated SQL by plain text
// rewriting. It never parses or validates the statement.
package sqlfix

import (
	"regexp"
	"strings"
)

// Corrector rewrites SQL text before execution.
type Corrector interface {
	Fix(sql string) string
}

// Rule replaces every literal occurrence of From with To.
type Rule struct {
	From string
	To   string
}

// TableNameCorrector maps placeholder table names onto one canonical table.
type TableNameCorrector struct {
	table     string
	rules     []Rule
	fromTable *regexp.Regexp
	fromWord  *regexp.Regexp
}

// NewTableNameCorrector builds the default rule set for table. Rules run in
// order, the qualified FROM forms before the bare placeholders.
func NewTableNameCorrector(table string) *TableNameCorrector {
	return &TableNameCorrector{
		table: table,
		rules: []Rule{
			{From: "FROM medical.database_schema", To: "FROM " + table},
			{From: "FROM `database_schema`", To: "FROM " + table},
			{From: "database_schema", To: table},
			{From: "table_name", To: table},
		},
		fromTable: regexp.MustCompile("(?i)\\bFROM\\s+[`\"]?(?:\\w+[`\"]?\\.[`\"]?)?" + regexp.QuoteMeta(table) + "\\b"),
		fromWord:  regexp.MustCompile(`(?i)\bFROM\b`),
	}
}

// Fix applies the rules until nothing changes, then makes sure the statement
// reads FROM <table>, splicing the name after the first FROM if needed.
// Fix(Fix(s)) == Fix(s).
func (c *TableNameCorrector) Fix(sql string) string {
	out := c.applyRules(sql)

	if c.fromTable.MatchString(out) {
		return out
	}
	loc := c.fromWord.FindStringIndex(out)
	if loc == nil {
		return out
	}
	head := out[:loc[1]]
	rest := strings.TrimLeft(out[loc[1]:], " \t\r\n")
	if rest == "" {
		return head + " " + c.table
	}
	return head + " " + c.table + " " + rest
}

func (c *TableNameCorrector) applyRules(sql string) string {
	// A replacement can complete a new match across its boundary, so repeat
	// until stable. Each pass consumes input text, which bounds the loop.
	for i := 0; i <= len(sql); i++ {
		next := sql
		for _, r := range c.rules {
			next = strings.ReplaceAll(next, r.From, r.To)
		}
		if next == sql {
			break
		}
		sql = next
	}
	return sql
}
