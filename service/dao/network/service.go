// Package network loads topology documents from YAML: the nodes with their
// physical slot layouts, the links joining them and the link scheduler
// parameters.
package network

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/toolbox"
	"gopkg.in/yaml.v3"

	"github.com/qnetlab/qnos/internal/yml"
	"github.com/qnetlab/qnos/model"
	"github.com/qnetlab/qnos/model/network"
	"github.com/qnetlab/qnos/service/dao/quantity"
	"github.com/qnetlab/qnos/service/meta"
)

// Service is the topology DAO.
type Service struct {
	metaService *meta.Service
}

// Option customizes the topology DAO.
type Option func(*Service)

// WithMetaService overrides the asset loader.
func WithMetaService(service *meta.Service) Option {
	return func(s *Service) {
		s.metaService = service
	}
}

// New creates a topology DAO.
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

// DecodeYAML decodes a topology from YAML.
func (s *Service) DecodeYAML(encoded []byte) (*network.Topology, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(encoded, &node); err != nil {
		return nil, err
	}
	return s.ParseTopology("", &node)
}

// Load loads a topology from YAML at the given URL. A URL without an
// extension defaults to .yaml.
func (s *Service) Load(ctx context.Context, URL string) (*network.Topology, error) {
	if filepath.Ext(URL) == "" {
		URL += ".yaml"
	}
	var node yaml.Node
	if err := s.metaService.Load(ctx, URL, &node); err != nil {
		return nil, fmt.Errorf("failed to load topology from %s: %w", URL, err)
	}
	return s.ParseTopology(URL, &node)
}

// ParseTopology converts a YAML node to a validated topology with scheduler
// defaults applied. A missing name falls back to the file name.
func (s *Service) ParseTopology(URL string, node *yaml.Node) (*network.Topology, error) {
	topology := &network.Topology{}
	if err := parseTopology((*yml.Node)(node).Root(), topology); err != nil {
		return nil, fmt.Errorf("failed to parse topology from %s: %w", URL, err)
	}
	if topology.Name == "" {
		base := filepath.Base(URL)
		topology.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if err := topology.Validate(); err != nil {
		return nil, err
	}
	return topology, nil
}

func parseTopology(node *yml.Node, topology *network.Topology) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("topology node should be a mapping")
	}
	return node.Pairs(func(key string, valueNode *yml.Node) error {
		switch strings.ToLower(key) {
		case "name":
			if valueNode.Kind == yaml.ScalarNode {
				topology.Name = valueNode.Value
			}
		case "nodes":
			if valueNode.Kind != yaml.SequenceNode {
				return fmt.Errorf("nodes node should be a sequence")
			}
			return valueNode.Items(func(index int, nodeNode *yml.Node) error {
				parsed, err := parseNode(index, nodeNode)
				if err != nil {
					return err
				}
				topology.Nodes = append(topology.Nodes, parsed)
				return nil
			})
		case "links":
			if valueNode.Kind != yaml.SequenceNode {
				return fmt.Errorf("links node should be a sequence")
			}
			return valueNode.Items(func(index int, linkNode *yml.Node) error {
				link, err := parseLink(index, linkNode)
				if err != nil {
					return err
				}
				topology.Links = append(topology.Links, link)
				return nil
			})
		case "scheduler":
			return parseScheduler(valueNode, &topology.Scheduler)
		}
		return nil
	})
}

func parseNode(index int, node *yml.Node) (network.Node, error) {
	parsed := network.Node{}
	if node.Kind != yaml.MappingNode {
		return parsed, fmt.Errorf("node %d should be a mapping", index)
	}
	err := node.Pairs(func(key string, valueNode *yml.Node) error {
		switch strings.ToLower(key) {
		case "name":
			parsed.Name = valueNode.Value
		case "slots":
			return parseSlots(valueNode, &parsed.Hardware)
		case "hardware":
			if slots := valueNode.Lookup("slots"); slots != nil {
				return parseSlots(slots, &parsed.Hardware)
			}
		}
		return nil
	})
	return parsed, err
}

// parseSlots accepts either a slot count, expanded to that many comm and
// storage capable slots, or a sequence of {id, traits} entries.
func parseSlots(node *yml.Node, hardware *model.Hardware) error {
	if node.Kind == yaml.ScalarNode {
		count, err := intValue(node)
		if err != nil || count < 0 {
			return fmt.Errorf("slots should be a count or a sequence")
		}
		for i := 0; i < count; i++ {
			hardware.Slots = append(hardware.Slots, model.Slot{
				ID:     i,
				Traits: model.TraitSet{model.CommCapable, model.StorageCapable},
			})
		}
		return nil
	}
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("slots should be a count or a sequence")
	}
	return node.Items(func(index int, slotNode *yml.Node) error {
		slot := model.Slot{ID: index}
		if slotNode.Kind == yaml.ScalarNode {
			slot.Traits = parseTraits(slotNode)
			hardware.Slots = append(hardware.Slots, slot)
			return nil
		}
		if slotNode.Kind != yaml.MappingNode {
			return fmt.Errorf("slot %d should be a mapping or trait list", index)
		}
		err := slotNode.Pairs(func(key string, valueNode *yml.Node) error {
			switch strings.ToLower(key) {
			case "id":
				id, err := intValue(valueNode)
				if err != nil {
					return fmt.Errorf("slot %d: id should be an integer", index)
				}
				slot.ID = id
			case "traits":
				slot.Traits = parseTraits(valueNode)
			}
			return nil
		})
		if err != nil {
			return err
		}
		hardware.Slots = append(hardware.Slots, slot)
		return nil
	})
}

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

func parseLink(index int, node *yml.Node) (network.Link, error) {
	link := network.Link{}
	if node.Kind != yaml.MappingNode {
		return link, fmt.Errorf("link %d should be a mapping", index)
	}
	err := node.Pairs(func(key string, valueNode *yml.Node) error {
		switch strings.ToLower(key) {
		case "nodea", "a":
			link.NodeA = valueNode.Value
		case "nodeb", "b":
			link.NodeB = valueNode.Value
		case "lengtha", "lengthakm":
			length, err := quantity.Length(valueNode.Value)
			if err != nil {
				return fmt.Errorf("link %d: %w", index, err)
			}
			link.LengthAKm = length
		case "lengthb", "lengthbkm":
			length, err := quantity.Length(valueNode.Value)
			if err != nil {
				return fmt.Errorf("link %d: %w", index, err)
			}
			link.LengthBKm = length
		case "length", "lengthkm":
			// Total length splits evenly around the midpoint source.
			length, err := quantity.Length(valueNode.Value)
			if err != nil {
				return fmt.Errorf("link %d: %w", index, err)
			}
			link.LengthAKm = length / 2
			link.LengthBKm = length / 2
		}
		return nil
	})
	return link, err
}

func parseScheduler(node *yml.Node, spec *network.SchedulerSpec) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("scheduler node should be a mapping")
	}
	return node.Pairs(func(key string, valueNode *yml.Node) error {
		switch strings.ToLower(key) {
		case "policy":
			spec.Policy = network.Policy(strings.ToLower(valueNode.Value))
		case "maxmultiplexing":
			value, err := intValue(valueNode)
			if err != nil {
				return fmt.Errorf("maxMultiplexing: %w", err)
			}
			spec.MaxMultiplexing = value
		case "switchtime":
			duration, err := quantity.Duration(valueNode.Value)
			if err != nil {
				return fmt.Errorf("switchTime: %w", err)
			}
			spec.SwitchTime = duration
		case "staticdelay":
			duration, err := quantity.Duration(valueNode.Value)
			if err != nil {
				return fmt.Errorf("staticDelay: %w", err)
			}
			spec.StaticDelay = duration
		case "timewindowprefix":
			value, err := floatValue(valueNode)
			if err != nil {
				return fmt.Errorf("timeWindowPrefix: %w", err)
			}
			spec.TimeWindowPrefix = value
		case "probinit":
			value, err := floatValue(valueNode)
			if err != nil {
				return fmt.Errorf("probInit: %w", err)
			}
			spec.ProbInit = value
		case "clightnsperkm":
			value, err := floatValue(valueNode)
			if err != nil {
				return fmt.Errorf("cLightNsPerKm: %w", err)
			}
			spec.CLightNsPerKm = value
		case "attenuation", "attenuationkm":
			length, err := quantity.Length(valueNode.Value)
			if err != nil {
				return fmt.Errorf("attenuation: %w", err)
			}
			spec.AttenuationKm = length
		case "maxrepeats":
			value, err := intValue(valueNode)
			if err != nil {
				return fmt.Errorf("maxRepeats: %w", err)
			}
			spec.MaxRepeats = value
		}
		return nil
	})
}

func intValue(node *yml.Node) (int, error) {
	var value int
	if err := toolbox.DefaultConverter.AssignConverted(&value, node.Interface()); err != nil {
		return 0, fmt.Errorf("expected an integer, got %q", node.Value)
	}
	return value, nil
}

func floatValue(node *yml.Node) (float64, error) {
	var value float64
	if err := toolbox.DefaultConverter.AssignConverted(&value, node.Interface()); err != nil {
		return 0, fmt.Errorf("expected a number, got %q", node.Value)
	}
	return value, nil
}
