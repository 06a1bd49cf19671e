package parameters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	bstate "github.com/viant/bindly/state"

	"github.com/qnetlab/qnos/model/state"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		description string
		input       string
		expected    *state.Parameter
		shouldError bool
	}{
		{
			description: "input binding",
			input:       "theta[float64](input/theta)",
			expected: &state.Parameter{
				Name:     "theta",
				DataType: "float64",
				Location: &bstate.Location{Kind: "input", In: "theta"},
			},
		},
		{
			description: "env binding",
			input:       "apiKey[string](env/QNOS_API_KEY)",
			expected: &state.Parameter{
				Name:     "apiKey",
				DataType: "string",
				Location: &bstate.Location{Kind: "env", In: "QNOS_API_KEY"},
			},
		},
		{
			description: "kind without location",
			input:       "shots[int](input)",
			expected: &state.Parameter{
				Name:     "shots",
				DataType: "int",
				Location: &bstate.Location{Kind: "input"},
			},
		},
		{
			description: "typed with empty binding",
			input:       "label[string]()",
			expected: &state.Parameter{
				Name:     "label",
				DataType: "string",
				Location: &bstate.Location{},
			},
		},
		{
			description: "nested type expression",
			input:       "weights[map[string]float64](input/weights)",
			expected: &state.Parameter{
				Name:     "weights",
				DataType: "map[string]float64",
				Location: &bstate.Location{Kind: "input", In: "weights"},
			},
		},
		{
			description: "missing closing bracket",
			input:       "theta[float64(input/theta)",
			shouldError: true,
		},
		{
			description: "missing parenthesis group",
			input:       "theta[float64]",
			shouldError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			result, err := Parse([]byte(tc.input))
			if tc.shouldError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.EqualValues(t, tc.expected, result)
		})
	}
}
