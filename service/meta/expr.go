package meta

import (
	"os"
	"strings"
	"unicode"
)

// expandEnvExpr substitutes every ${env.KEY} expression with the value of
// the named environment variable. Unset variables expand to the empty
// string. A reference without a closing brace, or whose key holds a
// character outside letters, digits and '_', keeps its opener literal while
// the remainder is still scanned.
func expandEnvExpr(value string) string {
	const open = "${env."
	if !strings.Contains(value, open) {
		return value
	}
	var out strings.Builder
	out.Grow(len(value))
	rest := value
	for {
		i := strings.Index(rest, open)
		if i < 0 {
			out.WriteString(rest)
			return out.String()
		}
		out.WriteString(rest[:i])
		tail := rest[i+len(open):]
		end := strings.IndexByte(tail, '}')
		if end < 0 {
			out.WriteString(rest[i:])
			return out.String()
		}
		key := tail[:end]
		if !validEnvKey(key) {
			out.WriteString(open)
			rest = tail
			continue
		}
		out.WriteString(os.Getenv(key))
		rest = tail[end+1:]
	}
}

func validEnvKey(key string) bool {
	for _, r := range key {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}
