package sqltoken

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrUnterminatedLiteral is returned when a string or quoted identifier never closes.
var ErrUnterminatedLiteral = errors.New("unterminated literal")

// TokenKind classifies a lexical token.
type TokenKind int

const (
	KindWhitespace TokenKind = iota
	KindComment
	KindPunct
	KindOperator
	KindString
	KindNumber
	KindName
	KindQuotedName
	KindKeyword
	KindDML
)

func (k TokenKind) String() string {
	switch k {
	case KindWhitespace:
		return "whitespace"
	case KindComment:
		return "comment"
	case KindPunct:
		return "punct"
	case KindOperator:
		return "operator"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindName:
		return "name"
	case KindQuotedName:
		return "quoted_name"
	case KindKeyword:
		return "keyword"
	case KindDML:
		return "dml"
	}
	return "unknown"
}

// Token is one lexical unit. Value keeps the source text, except keywords,
// which are upper-cased.
type Token struct {
	Kind  TokenKind
	Value string
}

var dmlWords = map[string]bool{
	"SELECT": true, "INSERT": true, "UPDATE": true, "DELETE": true, "REPLACE": true, "MERGE": true,
}

var keywords = map[string]bool{
	"FROM": true, "WHERE": true, "AND": true, "OR": true, "NOT": true, "IN": true, "IS": true,
	"NULL": true, "AS": true, "ON": true, "USING": true, "JOIN": true, "INNER": true, "LEFT": true,
	"RIGHT": true, "FULL": true, "OUTER": true, "CROSS": true, "NATURAL": true, "STRAIGHT_JOIN": true,
	"GROUP": true, "BY": true, "ORDER": true, "HAVING": true, "LIMIT": true, "OFFSET": true,
	"UNION": true, "ALL": true, "DISTINCT": true, "CASE": true, "WHEN": true, "THEN": true,
	"ELSE": true, "END": true, "BETWEEN": true, "LIKE": true, "EXISTS": true, "ASC": true,
	"DESC": true, "INTO": true, "VALUES": true, "SET": true, "WITH": true, "TOP": true,
	"INTERSECT": true, "EXCEPT": true, "OVER": true, "PARTITION": true, "TRUE": true, "FALSE": true,
	"ANY": true, "SOME": true, "INTERVAL": true, "REGEXP": true, "ILIKE": true, "FETCH": true,
}

// Lex splits sql into tokens. Only unterminated quotes are errors; anything
// else that is not recognised becomes an operator token.
func Lex(sql string) ([]Token, error) {
	rs := []rune(sql)
	var tokens []Token
	i := 0
	for i < len(rs) {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			j := i
			for j < len(rs) && unicode.IsSpace(rs[j]) {
				j++
			}
			tokens = append(tokens, Token{Kind: KindWhitespace, Value: string(rs[i:j])})
			i = j

		case r == '-' && i+1 < len(rs) && rs[i+1] == '-', r == '#':
			j := i
			for j < len(rs) && rs[j] != '\n' {
				j++
			}
			tokens = append(tokens, Token{Kind: KindComment, Value: string(rs[i:j])})
			i = j

		case r == '/' && i+1 < len(rs) && rs[i+1] == '*':
			j := i + 2
			for j < len(rs) && !(rs[j] == '*' && j+1 < len(rs) && rs[j+1] == '/') {
				j++
			}
			if j < len(rs) {
				j += 2
			}
			tokens = append(tokens, Token{Kind: KindComment, Value: string(rs[i:j])})
			i = j

		case r == '\'':
			j, err := scanQuoted(rs, i, '\'', '\'')
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, Token{Kind: KindString, Value: string(rs[i:j])})
			i = j

		case r == '"' || r == '`':
			j, err := scanQuoted(rs, i, r, r)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, Token{Kind: KindQuotedName, Value: string(rs[i:j])})
			i = j

		case r == '[':
			j, err := scanQuoted(rs, i, '[', ']')
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, Token{Kind: KindQuotedName, Value: string(rs[i:j])})
			i = j

		case unicode.IsDigit(r) || (r == '.' && i+1 < len(rs) && unicode.IsDigit(rs[i+1])):
			j := scanNumber(rs, i)
			tokens = append(tokens, Token{Kind: KindNumber, Value: string(rs[i:j])})
			i = j

		case isWordStart(r):
			j := i
			for j < len(rs) && isWordPart(rs[j]) {
				j++
			}
			word := string(rs[i:j])
			upper := strings.ToUpper(word)
			switch {
			case dmlWords[upper]:
				tokens = append(tokens, Token{Kind: KindDML, Value: upper})
			case keywords[upper]:
				tokens = append(tokens, Token{Kind: KindKeyword, Value: upper})
			default:
				tokens = append(tokens, Token{Kind: KindName, Value: word})
			}
			i = j

		case strings.ContainsRune("(),;.", r):
			tokens = append(tokens, Token{Kind: KindPunct, Value: string(r)})
			i++

		case strings.ContainsRune("<>=!+-*/%|&^~:", r):
			j := i
			for j < len(rs) && strings.ContainsRune("<>=!|&:", rs[j]) && j-i < 3 {
				j++
			}
			if j == i {
				j = i + 1
			}
			tokens = append(tokens, Token{Kind: KindOperator, Value: string(rs[i:j])})
			i = j

		default:
			tokens = append(tokens, Token{Kind: KindOperator, Value: string(r)})
			i++
		}
	}
	return tokens, nil
}

// scanQuoted returns the index just past the closing quote. A doubled closing
// quote is an escaped quote.
func scanQuoted(rs []rune, start int, open, close rune) (int, error) {
	j := start + 1
	for j < len(rs) {
		switch {
		case rs[j] == '\\' && open == '\'' && j+1 < len(rs):
			j += 2
		case rs[j] == close && j+1 < len(rs) && rs[j+1] == close:
			j += 2
		case rs[j] == close:
			return j + 1, nil
		default:
			j++
		}
	}
	return 0, fmt.Errorf("%w: %c at offset %d", ErrUnterminatedLiteral, open, start)
}

func scanNumber(rs []rune, start int) int {
	j := start
	seenDot := false
	for j < len(rs) {
		switch {
		case unicode.IsDigit(rs[j]):
			j++
		case rs[j] == '.' && !seenDot:
			seenDot = true
			j++
		case (rs[j] == 'e' || rs[j] == 'E') && j+1 < len(rs) &&
			(unicode.IsDigit(rs[j+1]) || ((rs[j+1] == '+' || rs[j+1] == '-') && j+2 < len(rs) && unicode.IsDigit(rs[j+2]))):
			j += 2
			for j < len(rs) && unicode.IsDigit(rs[j]) {
				j++
			}
			return j
		default:
			return j
		}
	}
	return j
}

func isWordStart(r rune) bool {
	return r == '_' || r == '$' || r == '@' || unicode.IsLetter(r)
}

func isWordPart(r rune) bool {
	return isWordStart(r) || unicode.IsDigit(r)
}
