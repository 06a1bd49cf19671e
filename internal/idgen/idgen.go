package idgen

import (
	"strings"

	"github.com/google/uuid"
)

// NewFunc produces globally unique identifiers. It is a variable so tests can
// stub it and obtain stable session/message ids.
var NewFunc = func() string { return uuid.New().String() }

// New returns a fresh identifier.
func New() string { return NewFunc() }

// Short returns the leading segment of a fresh identifier, adequate for log
// lines where a full uuid adds noise.
func Short() string {
	id := NewFunc()
	if idx := strings.IndexByte(id, '-'); idx > 0 {
		return id[:idx]
	}
	return id
}
