// Package quantity parses the human-readable magnitudes topology and
// program files use, such as "25km" link lengths and "1.5us" task
// durations. A bare number takes the base unit of the caller (nanoseconds
// for durations, kilometres for lengths).
package quantity

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/viant/parsly"
)

// Duration parses inputs like "1500ns", "2.5us", "10 ms" or "1s". A bare
// number is taken as nanoseconds.
func Duration(input string) (time.Duration, error) {
	value, unit, err := scan(input)
	if err != nil {
		return 0, err
	}
	var nsPerUnit float64
	switch unit {
	case "", "ns":
		nsPerUnit = 1
	case "us":
		nsPerUnit = float64(time.Microsecond)
	case "ms":
		nsPerUnit = float64(time.Millisecond)
	case "s":
		nsPerUnit = float64(time.Second)
	default:
		return 0, fmt.Errorf("unsupported duration unit %q in %q", unit, input)
	}
	return time.Duration(math.Round(value * nsPerUnit)), nil
}

// Length parses inputs like "25km", "12.5 km" or "800m" and returns
// kilometres. A bare number is taken as kilometres.
func Length(input string) (float64, error) {
	value, unit, err := scan(input)
	if err != nil {
		return 0, err
	}
	switch unit {
	case "", "km":
		return value, nil
	case "m":
		return value / 1000, nil
	}
	return 0, fmt.Errorf("unsupported length unit %q in %q", unit, input)
}

// scan splits the input into its numeric value and optional unit suffix.
func scan(input string) (float64, string, error) {
	cursor := parsly.NewCursor("", []byte(input), 0)

	matched := cursor.MatchAfterOptional(whitespaceToken, numberToken)
	if matched.Code != numberToken.Code {
		return 0, "", cursor.NewError(numberToken)
	}
	value, err := strconv.ParseFloat(matched.Text(cursor), 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid number in %q: %w", input, err)
	}

	unit := ""
	matched = cursor.MatchAfterOptional(whitespaceToken, unitToken)
	if matched.Code == unitToken.Code {
		unit = matched.Text(cursor)
	}

	cursor.MatchOne(whitespaceToken)
	if cursor.Pos < cursor.InputSize {
		return 0, "", fmt.Errorf("unexpected trailing input in %q", input)
	}
	return value, unit, nil
}
