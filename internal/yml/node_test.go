package yml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const document = `
name: lab
count: 3
ratio: 0.5
enabled: true
nodes:
  - alice
  - bob
`

func parse(t *testing.T) *Node {
	t.Helper()
	var node yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(document), &node))
	return (*Node)(&node).Root()
}

func TestNodeLookup(t *testing.T) {
	root := parse(t)
	assert.Equal(t, "lab", root.Lookup("name").Value)
	assert.Equal(t, "lab", root.Lookup("NAME").Value)
	assert.Nil(t, root.Lookup("absent"))
}

func TestNodePairs(t *testing.T) {
	root := parse(t)
	var keys []string
	err := root.Pairs(func(key string, node *Node) error {
		keys = append(keys, key)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "count", "ratio", "enabled", "nodes"}, keys)
}

func TestNodeInterface(t *testing.T) {
	root := parse(t)
	value, ok := root.Interface().(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "lab", value["name"])
	assert.Equal(t, 3, value["count"])
	assert.Equal(t, 0.5, value["ratio"])
	assert.Equal(t, true, value["enabled"])
	assert.Equal(t, []interface{}{"alice", "bob"}, value["nodes"])
}
