package meta

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandEnvExpr(t *testing.T) {
	t.Setenv("QNOS_FOO", "bar")
	t.Setenv("QNOS_A", "1")
	t.Setenv("QNOS_B", "2")

	testCases := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "no expressions",
			input:  "just a plain string",
			expect: "just a plain string",
		},
		{
			name:   "single expression",
			input:  "value is ${env.QNOS_FOO}",
			expect: "value is bar",
		},
		{
			name:   "repeated expressions",
			input:  "${env.QNOS_A}-${env.QNOS_B}-${env.QNOS_A}",
			expect: "1-2-1",
		},
		{
			name:   "unset variable becomes empty",
			input:  "unset=${env.QNOS_NOTSET}-end",
			expect: "unset=-end",
		},
		{
			name:   "missing closing brace stays literal",
			input:  "start ${env.QNOS_FOO and ${env.QNOS_NOTSET} end",
			expect: "start ${env.QNOS_FOO and  end",
		},
		{
			name:   "empty key",
			input:  "oops ${env.} done",
			expect: "oops  done",
		},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expect, expandEnvExpr(tc.input), tc.name)
	}
}
