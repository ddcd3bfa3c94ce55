package sqltoken

import "strings"

// Parse lexes sql and groups every statement into a node tree. Grouping is
// lenient: unbalanced parentheses and unknown syntax are kept as leaves.
func Parse(sql string) ([]Statement, error) {
	tokens, err := Lex(sql)
	if err != nil {
		return nil, err
	}

	var statements []Statement
	var current []Token
	flush := func() {
		if len(current) == 0 {
			return
		}
		pos := 0
		nodes := buildSequence(current, &pos, false)
		statements = append(statements, Statement{Nodes: nodes})
		current = nil
	}

	depth := 0
	for _, t := range tokens {
		if t.Kind == KindWhitespace || t.Kind == KindComment {
			continue
		}
		if t.Kind == KindPunct {
			switch t.Value {
			case "(":
				depth++
			case ")":
				if depth > 0 {
					depth--
				}
			case ";":
				if depth == 0 {
					flush()
					continue
				}
			}
		}
		current = append(current, t)
	}
	flush()
	return statements, nil
}

// buildSequence consumes tokens until the end or, inside a group, the closing
// parenthesis, and returns the grouped nodes of that level.
func buildSequence(tokens []Token, pos *int, inGroup bool) []Node {
	var raw []Node
	for *pos < len(tokens) {
		t := tokens[*pos]
		*pos++
		if t.Kind == KindPunct && t.Value == "(" {
			raw = append(raw, &Group{Children: buildSequence(tokens, pos, true)})
			continue
		}
		if t.Kind == KindPunct && t.Value == ")" {
			if inGroup {
				break
			}
			raw = append(raw, &Leaf{Token: t})
			continue
		}
		switch t.Kind {
		case KindKeyword:
			raw = append(raw, &Keyword{Value: t.Value})
		case KindDML:
			raw = append(raw, &Keyword{Value: t.Value, DML: true})
		default:
			raw = append(raw, &Leaf{Token: t})
		}
	}
	return groupLists(groupIdentifiers(raw))
}

func groupIdentifiers(nodes []Node) []Node {
	out := make([]Node, 0, len(nodes))
	for i := 0; i < len(nodes); i++ {
		if g, ok := nodes[i].(*Group); ok {
			alias := &Identifier{}
			i = consumeAlias(nodes, i, alias)
			g.Alias = alias.Alias
			out = append(out, g)
			continue
		}
		leaf, ok := nodes[i].(*Leaf)
		if !ok || !isNameLeaf(leaf) {
			out = append(out, nodes[i])
			continue
		}

		id := &Identifier{Parts: []string{unquote(leaf.Value)}}
		for i+2 < len(nodes) && isPunctLeaf(nodes[i+1], ".") && isNamePart(nodes[i+2]) {
			id.Parts = append(id.Parts, unquote(nodes[i+2].(*Leaf).Value))
			i += 2
		}
		if i+1 < len(nodes) {
			if g, ok := nodes[i+1].(*Group); ok {
				id.Args = g
				i++
			}
		}
		i = consumeAlias(nodes, i, id)
		out = append(out, id)
	}
	return out
}

// consumeAlias attaches "AS name" or a bare trailing name to id and returns
// the index of the last consumed node.
func consumeAlias(nodes []Node, i int, id *Identifier) int {
	if i+2 < len(nodes) {
		if k, ok := nodes[i+1].(*Keyword); ok && k.Is("AS") {
			if l, ok := nodes[i+2].(*Leaf); ok && (isNameLeaf(l) || l.Kind == KindString) {
				id.Alias = unquote(l.Value)
				return i + 2
			}
		}
	}
	if i+1 < len(nodes) {
		if l, ok := nodes[i+1].(*Leaf); ok && isNameLeaf(l) {
			id.Alias = unquote(l.Value)
			return i + 1
		}
	}
	return i
}

func groupLists(nodes []Node) []Node {
	out := make([]Node, 0, len(nodes))
	i := 0
	for i < len(nodes) {
		if isListItem(nodes[i]) && i+2 < len(nodes) && isPunctLeaf(nodes[i+1], ",") && isListItem(nodes[i+2]) {
			list := &IdentifierList{Items: []Node{nodes[i]}}
			j := i + 1
			for j+1 < len(nodes) && isPunctLeaf(nodes[j], ",") && isListItem(nodes[j+1]) {
				list.Items = append(list.Items, nodes[j+1])
				j += 2
			}
			out = append(out, list)
			i = j
			continue
		}
		out = append(out, nodes[i])
		i++
	}
	return out
}

func isNameLeaf(l *Leaf) bool {
	return l.Kind == KindName || l.Kind == KindQuotedName
}

func isNamePart(n Node) bool {
	l, ok := n.(*Leaf)
	return ok && (isNameLeaf(l) || (l.Kind == KindOperator && l.Value == "*"))
}

func isPunctLeaf(n Node, value string) bool {
	l, ok := n.(*Leaf)
	return ok && l.Kind == KindPunct && l.Value == value
}

func isListItem(n Node) bool {
	switch n := n.(type) {
	case *Identifier, *Group:
		return true
	case *Leaf:
		switch n.Kind {
		case KindString, KindNumber:
			return true
		case KindOperator:
			return n.Value == "*"
		}
	}
	return false
}

func unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	first, last := s[0], s[len(s)-1]
	if (first == '"' && last == '"') || (first == '`' && last == '`') || (first == '[' && last == ']') || (first == '\'' && last == '\'') {
		inner := s[1 : len(s)-1]
		if first == '[' {
			return inner
		}
		q := string(first)
		return strings.ReplaceAll(inner, q+q, q)
	}
	return s
}
