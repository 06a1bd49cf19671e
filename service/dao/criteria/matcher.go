// Package criteria implements the shared list filters of the record stores.
package criteria

import (
	"github.com/qnetlab/qnos/service/dao"
)

// FilterByState reports whether a record in the given state passes the
// filter parameters. An empty parameter list admits everything; a State
// parameter admits matching states, scalar or slice valued.
func FilterByState(state string, parameters []*dao.Parameter) bool {
	if len(parameters) != 1 || parameters[0].Name != "State" {
		return true
	}
	switch actual := parameters[0].Value.(type) {
	case string:
		return state == actual
	case []string:
		for _, candidate := range actual {
			if state == candidate {
				return true
			}
		}
		return false
	}
	return true
}
