// Package unitmodule loads unit module declarations from YAML: the virtual
// qubit ids a program uses and the slot traits each id demands.
package unitmodule

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	"github.com/qnetlab/qnos/internal/yml"
	"github.com/qnetlab/qnos/model"
	"github.com/qnetlab/qnos/service/meta"
)

// Service is the unit module DAO.
type Service struct {
	metaService *meta.Service
}

// Option customizes the unit module DAO.
type Option func(*Service)

// WithMetaService overrides the asset loader.
func WithMetaService(service *meta.Service) Option {
	return func(s *Service) {
		s.metaService = service
	}
}

// New creates a unit module DAO.
func New(options ...Option) *Service {
	s := &Service{}
	for _, opt := range options {
		opt(s)
	}
	if s.metaService == nil {
		s.metaService = meta.New(afs.New(), "")
	}
	return s
}

// DecodeYAML decodes a unit module from YAML.
func (s *Service) DecodeYAML(encoded []byte) (*model.UnitModule, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(encoded, &node); err != nil {
		return nil, err
	}
	return s.ParseUnitModule("", &node)
}

// Load loads a unit module from YAML at the given URL. A URL without an
// extension defaults to .yaml.
func (s *Service) Load(ctx context.Context, URL string) (*model.UnitModule, error) {
	if filepath.Ext(URL) == "" {
		URL += ".yaml"
	}
	var node yaml.Node
	if err := s.metaService.Load(ctx, URL, &node); err != nil {
		return nil, fmt.Errorf("failed to load unit module from %s: %w", URL, err)
	}
	return s.ParseUnitModule(URL, &node)
}

// ParseUnitModule converts a YAML node to a validated unit module. A
// missing name falls back to the file name.
func (s *Service) ParseUnitModule(URL string, node *yaml.Node) (*model.UnitModule, error) {
	um := &model.UnitModule{}
	if err := parseUnitModule((*yml.Node)(node).Root(), um); err != nil {
		return nil, fmt.Errorf("failed to parse unit module from %s: %w", URL, err)
	}
	if um.Name == "" {
		base := filepath.Base(URL)
		um.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if err := um.Validate(); err != nil {
		return nil, err
	}
	return um, nil
}

func parseUnitModule(node *yml.Node, um *model.UnitModule) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("unit module node should be a mapping")
	}
	return node.Pairs(func(key string, valueNode *yml.Node) error {
		switch strings.ToLower(key) {
		case "name":
			if valueNode.Kind == yaml.ScalarNode {
				um.Name = valueNode.Value
			}
		case "qubits":
			if valueNode.Kind != yaml.SequenceNode {
				return fmt.Errorf("qubits node should be a sequence")
			}
			return valueNode.Items(func(index int, qubitNode *yml.Node) error {
				qubit, err := parseQubit(index, qubitNode)
				if err != nil {
					return err
				}
				um.Qubits = append(um.Qubits, qubit)
				return nil
			})
		}
		return nil
	})
}

func parseQubit(index int, node *yml.Node) (model.VirtualQubit, error) {
	// A scalar entry is a bare trait list; the virtual id is the position.
	if node.Kind == yaml.ScalarNode {
		return model.VirtualQubit{ID: index, Traits: parseTraits(node)}, nil
	}
	if node.Kind != yaml.MappingNode {
		return model.VirtualQubit{}, fmt.Errorf("qubit %d should be a mapping or trait list", index)
	}
	qubit := model.VirtualQubit{ID: index}
	err := node.Pairs(func(key string, valueNode *yml.Node) error {
		switch strings.ToLower(key) {
		case "id":
			id, ok := valueNode.Interface().(int)
			if !ok {
				return fmt.Errorf("qubit %d: id should be an integer", index)
			}
			qubit.ID = id
		case "traits":
			qubit.Traits = parseTraits(valueNode)
		}
		return nil
	})
	return qubit, err
}

// parseTraits accepts either a sequence of trait names or a single
// comma-separated scalar.
func parseTraits(node *yml.Node) model.TraitSet {
	var traits model.TraitSet
	if node.Kind == yaml.SequenceNode {
		_ = node.Items(func(_ int, item *yml.Node) error {
			traits = append(traits, model.Trait(strings.TrimSpace(item.Value)))
			return nil
		})
		return traits
	}
	for _, part := range strings.Split(node.Value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			traits = append(traits, model.Trait(part))
		}
	}
	return traits
}
