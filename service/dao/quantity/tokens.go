package quantity

import (
	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

// Token codes
const (
	whitespaceCode = iota
	numberCode
	unitCode
)

// Token definitions
var (
	whitespaceToken = parsly.NewToken(whitespaceCode, "Whitespace", matcher.NewWhiteSpace())
	numberToken     = parsly.NewToken(numberCode, "Number", newNumberMatcher())
	unitToken       = parsly.NewToken(unitCode, "Unit", newUnitMatcher())
)

func newNumberMatcher() parsly.Matcher {
	return &numberMatcher{}
}

func newUnitMatcher() parsly.Matcher {
	return &unitMatcher{}
}

// numberMatcher matches an unsigned decimal number with at most one
// fractional point, e.g. 25 or 12.5.
type numberMatcher struct{}

func (m *numberMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize

	if pos >= size || !isDigit(input[pos]) {
		return 0
	}

	matched := 1
	dotted := false
	for i := pos + 1; i < size; i++ {
		if isDigit(input[i]) {
			matched++
			continue
		}
		if input[i] == '.' && !dotted && i+1 < size && isDigit(input[i+1]) {
			dotted = true
			matched++
			continue
		}
		break
	}
	return matched
}

// unitMatcher matches a run of letters following the number, e.g. ns or km.
type unitMatcher struct{}

func (m *unitMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize

	matched := 0
	for i := pos; i < size; i++ {
		if !isLetter(input[i]) {
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
