// Package state models program input parameters: named values a process is
// started with, optionally bound from an external location.
package state

import (
	"github.com/viant/bindly/state"
)

// Parameter is one named program input. Location, when present, names where
// the value is resolved from before the process starts (for example an env
// variable or the caller's input map).
type Parameter struct {
	Name     string          `json:"name" yaml:"name"`
	Value    interface{}     `json:"value,omitempty" yaml:"value,omitempty"`
	DataType string          `json:"dataType,omitempty" yaml:"dataType,omitempty"`
	Location *state.Location `json:"location,omitempty" yaml:"location,omitempty"`
	Default  interface{}     `json:"default,omitempty" yaml:"default,omitempty"`
}

// Parameters is an ordered program input collection.
type Parameters []*Parameter

// Lookup returns the parameter with the given name.
func (p Parameters) Lookup(name string) (*Parameter, bool) {
	for _, param := range p {
		if param.Name == name {
			return param, true
		}
	}
	return nil, false
}

// Set stores value under name, appending a new parameter when absent.
func (p *Parameters) Set(name string, value interface{}) {
	if param, ok := p.Lookup(name); ok {
		param.Value = value
		return
	}
	*p = append(*p, &Parameter{Name: name, Value: value})
}

// AsMap flattens the collection, applying defaults for unset values.
func (p Parameters) AsMap() map[string]interface{} {
	out := make(map[string]interface{}, len(p))
	for _, param := range p {
		value := param.Value
		if value == nil {
			value = param.Default
		}
		out[param.Name] = value
	}
	return out
}

// Merge overlays values from input onto declared parameters, ignoring names
// the program does not declare.
func (p Parameters) Merge(input map[string]interface{}) {
	for name, value := range input {
		if param, ok := p.Lookup(name); ok {
			param.Value = value
		}
	}
}
