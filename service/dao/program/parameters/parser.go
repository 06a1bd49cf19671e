// Package parameters parses typed parameter declarations used as mapping
// keys in program files.
package parameters

import (
	bstate "github.com/viant/bindly/state"
	"github.com/viant/parsly"

	"github.com/qnetlab/qnos/model/state"
)

// Parse decodes a declaration of the form name[dataType](kind/location),
// for example theta[float64](input/theta) or apiKey[string](env/QNOS_KEY).
// The location group may be empty: name[dataType]() declares a typed
// parameter with no binding.
func Parse(input []byte) (*state.Parameter, error) {
	cursor := parsly.NewCursor("", input, 0)
	parameter := &state.Parameter{Location: &bstate.Location{}}

	matched := cursor.MatchOne(identifierToken)
	if matched.Code != identifierToken.Code {
		return nil, cursor.NewError(identifierToken)
	}
	parameter.Name = matched.Text(cursor)

	matched = cursor.MatchOne(openBracketToken)
	if matched.Code != openBracketToken.Code {
		return nil, cursor.NewError(openBracketToken)
	}
	matched = cursor.MatchOne(dataTypeToken)
	if matched.Code != dataTypeToken.Code {
		return nil, cursor.NewError(dataTypeToken)
	}
	parameter.DataType = matched.Text(cursor)
	matched = cursor.MatchOne(closeBracketToken)
	if matched.Code != closeBracketToken.Code {
		return nil, cursor.NewError(closeBracketToken)
	}

	matched = cursor.MatchAfterOptional(whitespaceToken, openParenToken)
	if matched.Code != openParenToken.Code {
		return nil, cursor.NewError(openParenToken)
	}

	matched = cursor.MatchAny(kindToken, closeParenToken)
	switch matched.Code {
	case closeParenToken.Code:
		return parameter, nil
	case kindToken.Code:
	default:
		return nil, cursor.NewError(kindToken)
	}
	parameter.Location.Kind = matched.Text(cursor)

	matched = cursor.MatchOne(slashToken)
	if matched.Code != slashToken.Code {
		matched = cursor.MatchOne(closeParenToken)
		if matched.Code != closeParenToken.Code {
			return nil, cursor.NewError(closeParenToken)
		}
		return parameter, nil
	}

	matched = cursor.MatchOne(locationToken)
	if matched.Code != locationToken.Code {
		return nil, cursor.NewError(locationToken)
	}
	parameter.Location.In = matched.Text(cursor)

	matched = cursor.MatchOne(closeParenToken)
	if matched.Code != closeParenToken.Code {
		return nil, cursor.NewError(closeParenToken)
	}
	return parameter, nil
}
