package parameters

import (
	"strings"

	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

// Token codes
const (
	whitespaceCode = iota
	identifierCode
	openBracketCode
	closeBracketCode
	openParenCode
	closeParenCode
	slashCode
	dataTypeCode
	kindCode
	locationCode
)

// Token definitions
var (
	whitespaceToken   = parsly.NewToken(whitespaceCode, "Whitespace", matcher.NewWhiteSpace())
	identifierToken   = parsly.NewToken(identifierCode, "Identifier", &identifierMatcher{})
	openBracketToken  = parsly.NewToken(openBracketCode, "[", matcher.NewByte('['))
	closeBracketToken = parsly.NewToken(closeBracketCode, "]", matcher.NewByte(']'))
	openParenToken    = parsly.NewToken(openParenCode, "(", matcher.NewByte('('))
	closeParenToken   = parsly.NewToken(closeParenCode, ")", matcher.NewByte(')'))
	slashToken        = parsly.NewToken(slashCode, "/", matcher.NewByte('/'))
	dataTypeToken     = parsly.NewToken(dataTypeCode, "DataType", &dataTypeMatcher{})
	kindToken         = parsly.NewToken(kindCode, "Kind", &stopMatcher{stops: "/)"})
	locationToken     = parsly.NewToken(locationCode, "Location", &stopMatcher{stops: ")"})
)

// identifierMatcher matches a parameter name: a letter or underscore
// followed by letters, digits and underscores.
type identifierMatcher struct{}

func (m *identifierMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize

	if pos >= size {
		return 0
	}
	if !isLetter(input[pos]) && input[pos] != '_' {
		return 0
	}
	matched := 1
	for i := pos + 1; i < size; i++ {
		if !isLetter(input[i]) && !isDigit(input[i]) && input[i] != '_' {
			break
		}
		matched++
	}
	return matched
}

// dataTypeMatcher captures a type expression up to its closing bracket,
// tracking nesting so declarations like map[string]int survive.
type dataTypeMatcher struct{}

func (m *dataTypeMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	size := cursor.InputSize

	depth := 0
	matched := 0
	for i := cursor.Pos; i < size; i++ {
		switch input[i] {
		case '[':
			depth++
		case ']':
			if depth == 0 {
				return matched
			}
			depth--
		}
		matched++
	}
	return matched
}

// stopMatcher captures everything up to one of its stop bytes.
type stopMatcher struct {
	stops string
}

func (m *stopMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	size := cursor.InputSize

	matched := 0
	for i := cursor.Pos; i < size; i++ {
		if strings.IndexByte(m.stops, input[i]) >= 0 {
			break
		}
		matched++
	}
	return matched
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
