// Package yml wraps yaml.Node with the traversal helpers the asset loaders
// use to walk topology, unit module and program documents.
package yml

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type (
	Node yaml.Node

	// Nodes is the content of a mapping node, alternating key and value
	// entries.
	Nodes []*yaml.Node
)

// LookupValueNode returns the value node of the named key, matched
// case-insensitively, or nil.
func (n Nodes) LookupValueNode(name string) *yaml.Node {
	for i := 0; i+1 < len(n); i += 2 {
		if strings.EqualFold(n[i].Value, name) {
			return n[i+1]
		}
	}
	return nil
}

// Root unwraps a document node to its top-level content.
func (n *Node) Root() *Node {
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		return (*Node)(n.Content[0])
	}
	return n
}

// Lookup returns the value node of the named key of a mapping node.
func (n *Node) Lookup(name string) *Node {
	return (*Node)(Nodes(n.Content).LookupValueNode(name))
}

// Items walks a sequence node.
func (n *Node) Items(callback func(index int, node *Node) error) error {
	for i := 0; i < len(n.Content); i++ {
		if err := callback(i, (*Node)(n.Content[i])); err != nil {
			return err
		}
	}
	return nil
}

// Pairs walks a mapping node key by key.
func (n *Node) Pairs(callback func(key string, node *Node) error) error {
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value
		if err := callback(key, (*Node)(n.Content[i+1])); err != nil {
			return err
		}
	}
	return nil
}

// Interface converts the subtree to plain Go values: string, bool, int,
// float64, nil, map[string]interface{} and []interface{}.
func (n *Node) Interface() interface{} {
	switch n.Kind {
	case yaml.ScalarNode:
		switch n.Tag {
		case "!!str":
			return n.Value
		case "!!bool":
			return parseBool(n.Value)
		case "!!null":
			return nil
		case "!!float":
			return parseFloat(n.Value)
		case "!!int":
			return parseInt(n.Value)
		default:
			return n.Value
		}
	case yaml.MappingNode:
		aMap := make(map[string]interface{})
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			aMap[key] = (*Node)(n.Content[i+1]).Interface()
		}
		return aMap
	case yaml.SequenceNode:
		aSlice := make([]interface{}, 0, len(n.Content))
		for i := 0; i < len(n.Content); i++ {
			aSlice = append(aSlice, (*Node)(n.Content[i]).Interface())
		}
		return aSlice
	case yaml.DocumentNode:
		if len(n.Content) > 0 {
			return (*Node)(n.Content[0]).Interface()
		}
	}
	return nil
}

func parseBool(value string) bool {
	return strings.ToLower(value) == "true"
}

func parseFloat(value string) float64 {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return f
}

func parseInt(value string) int {
	i, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return i
}
