package sqltoken

import "strings"

// Node is one element of a grouped statement. The set of implementations is
// closed: *Keyword, *Identifier, *IdentifierList, *Group and *Leaf.
type Node interface {
	node()
}

// Keyword is a reserved word. DML is set for SELECT, INSERT and friends.
type Keyword struct {
	Value string
	DML   bool
}

// Is reports whether the keyword equals word, ignoring case.
func (k *Keyword) Is(word string) bool {
	return strings.EqualFold(k.Value, word)
}

// Identifier is a possibly dotted name, optionally a function call, optionally aliased.
type Identifier struct {
	Parts []string
	Args  *Group
	Alias string
}

// RealName is the last dotted part, without quotes.
func (i *Identifier) RealName() string {
	if len(i.Parts) == 0 {
		return ""
	}
	return i.Parts[len(i.Parts)-1]
}

// IsFunction reports whether the identifier is a call like COUNT(*).
func (i *Identifier) IsFunction() bool {
	return i.Args != nil
}

// IdentifierList is a comma separated run of items.
type IdentifierList struct {
	Items []Node
}

// Group is a parenthesized sequence. Alias is set for derived tables.
type Group struct {
	Children []Node
	Alias    string
}

// IsSubquery reports whether the group starts with SELECT.
func (g *Group) IsSubquery() bool {
	if len(g.Children) == 0 {
		return false
	}
	k, ok := g.Children[0].(*Keyword)
	return ok && k.Is("SELECT")
}

// Leaf wraps a token that was not folded into anything larger.
type Leaf struct {
	Token
}

func (*Keyword) node()        {}
func (*Identifier) node()     {}
func (*IdentifierList) node() {}
func (*Group) node()          {}
func (*Leaf) node()           {}

// Statement is one ';' separated statement with whitespace and comments removed.
type Statement struct {
	Nodes []Node
}

// Kind is the leading DML keyword of the statement, or "" when there is none.
func (s Statement) Kind() string {
	for _, n := range s.Nodes {
		if k, ok := n.(*Keyword); ok {
			if k.DML {
				return k.Value
			}
			if k.Is("WITH") {
				continue
			}
			return ""
		}
	}
	return ""
}

// Visitor receives each node kind through its own method.
type Visitor interface {
	VisitKeyword(k *Keyword)
	VisitIdentifier(i *Identifier)
	VisitIdentifierList(l *IdentifierList)
	VisitGroup(g *Group)
	VisitLeaf(l *Leaf)
}

// Dispatch calls the Visitor method matching n's concrete type.
func Dispatch(v Visitor, n Node) {
	switch n := n.(type) {
	case *Keyword:
		v.VisitKeyword(n)
	case *Identifier:
		v.VisitIdentifier(n)
	case *IdentifierList:
		v.VisitIdentifierList(n)
	case *Group:
		v.VisitGroup(n)
	case *Leaf:
		v.VisitLeaf(n)
	}
}

// Walk dispatches every node of nodes in order. It does not descend; visitors
// that need children recurse themselves.
func Walk(v Visitor, nodes []Node) {
	for _, n := range nodes {
		Dispatch(v, n)
	}
}
