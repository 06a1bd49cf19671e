package dao

// Parameter filters a List call, for example by record state.
type Parameter struct {
	Name  string
	Value interface{}
}

// NewParameter creates a filter parameter. A single value stays scalar,
// several become a value slice.
func NewParameter(name string, values ...string) *Parameter {
	if len(values) == 1 {
		return &Parameter{Name: name, Value: values[0]}
	}
	return &Parameter{Name: name, Value: values}
}

// ByState filters records on their state, admitting any of the given
// values. It is the one filter the record stores implement.
func ByState(states ...string) *Parameter {
	return NewParameter("State", states...)
}
