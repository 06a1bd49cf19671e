// Package program loads program definitions from YAML documents: the named
// task list a process executes, its unit module reference and its input
// parameters.
package program

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/structology/conv"
	"gopkg.in/yaml.v3"

	"github.com/qnetlab/qnos/internal/yml"
	"github.com/qnetlab/qnos/model"
	"github.com/qnetlab/qnos/model/request"
	"github.com/qnetlab/qnos/model/state"
	"github.com/qnetlab/qnos/service/dao/program/parameters"
	"github.com/qnetlab/qnos/service/dao/quantity"
	"github.com/qnetlab/qnos/service/meta"
)

// Service is the program DAO.
type Service struct {
	metaService *meta.Service
	converter   *conv.Converter
}

// New creates a program DAO.
func New(options ...Option) *Service {
	s := &Service{}
	for _, opt := range options {
		opt(s)
	}
	if s.metaService == nil {
		s.metaService = meta.New(afs.New(), "")
	}
	s.converter = conv.NewConverter(conv.DefaultOptions())
	return s
}

// DecodeYAML decodes a program from YAML.
func (s *Service) DecodeYAML(encoded []byte) (*model.Program, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(encoded, &node); err != nil {
		return nil, err
	}
	return s.ParseProgram("", &node)
}

// Load loads a program from YAML at the given URL. A URL without an
// extension defaults to .yaml.
func (s *Service) Load(ctx context.Context, URL string) (*model.Program, error) {
	if filepath.Ext(URL) == "" {
		URL += ".yaml"
	}
	var node yaml.Node
	if err := s.metaService.Load(ctx, URL, &node); err != nil {
		return nil, fmt.Errorf("failed to load program from %s: %w", URL, err)
	}
	return s.ParseProgram(URL, &node)
}

// ParseProgram converts a YAML node to a validated program. A missing name
// falls back to the file name.
func (s *Service) ParseProgram(URL string, node *yaml.Node) (*model.Program, error) {
	program := &model.Program{}
	if err := s.parseProgram((*yml.Node)(node).Root(), program); err != nil {
		return nil, fmt.Errorf("failed to parse program from %s: %w", URL, err)
	}
	if program.Name == "" {
		program.Name = nameFromURL(URL)
	}
	if err := program.Validate(); err != nil {
		return nil, err
	}
	return program, nil
}

func (s *Service) parseProgram(node *yml.Node, program *model.Program) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("program node should be a mapping")
	}
	return node.Pairs(func(key string, valueNode *yml.Node) error {
		switch strings.ToLower(key) {
		case "name":
			if valueNode.Kind == yaml.ScalarNode {
				program.Name = valueNode.Value
			}
		case "unitmodule", "module":
			if valueNode.Kind == yaml.ScalarNode {
				program.UnitModule = valueNode.Value
			}
		case "params", "init":
			params, err := parseParameters(valueNode)
			if err != nil {
				return fmt.Errorf("failed to parse params: %w", err)
			}
			program.Params = params
		case "tasks":
			if valueNode.Kind != yaml.SequenceNode {
				return fmt.Errorf("tasks node should be a sequence")
			}
			return valueNode.Items(func(index int, taskNode *yml.Node) error {
				task, err := s.parseTask(taskNode)
				if err != nil {
					return fmt.Errorf("task %d: %w", index, err)
				}
				program.Tasks = append(program.Tasks, task)
				return nil
			})
		}
		return nil
	})
}

func (s *Service) parseTask(node *yml.Node) (*model.Task, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("task node should be a mapping")
	}
	task := &model.Task{}
	err := node.Pairs(func(key string, valueNode *yml.Node) error {
		switch strings.ToLower(key) {
		case "id":
			task.ID = valueNode.Value
		case "kind":
			task.Kind = model.TaskKind(valueNode.Value)
		case "duration":
			duration, err := quantity.Duration(valueNode.Value)
			if err != nil {
				return err
			}
			task.Duration = duration
		case "request":
			req := &request.EprRequest{}
			if err := s.converter.Convert(valueNode.Interface(), req); err != nil {
				return fmt.Errorf("failed to convert request: %w", err)
			}
			task.Request = req
		case "wait":
			wait := &model.PairRange{}
			if err := s.converter.Convert(valueNode.Interface(), wait); err != nil {
				return fmt.Errorf("failed to convert wait range: %w", err)
			}
			task.Wait = wait
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// parseParameters accepts either a mapping of name to value, where a key
// may carry a typed declaration such as theta[float64](input/theta), or a
// sequence of {name, value} entries.
func parseParameters(node *yml.Node) (state.Parameters, error) {
	var params state.Parameters
	switch node.Kind {
	case yaml.MappingNode:
		err := node.Pairs(func(key string, valueNode *yml.Node) error {
			if strings.Contains(key, "[") && !strings.HasSuffix(key, "[]") {
				parameter, err := parameters.Parse([]byte(key))
				if err != nil {
					return fmt.Errorf("failed to parse parameter %q: %w", key, err)
				}
				parameter.Value = valueNode.Interface()
				params = append(params, parameter)
				return nil
			}
			params = append(params, &state.Parameter{Name: key, Value: valueNode.Interface()})
			return nil
		})
		if err != nil {
			return nil, err
		}
	case yaml.SequenceNode:
		err := node.Items(func(index int, item *yml.Node) error {
			if item.Kind != yaml.MappingNode {
				return fmt.Errorf("param %d should be a mapping", index)
			}
			param := &state.Parameter{}
			if err := item.Pairs(func(key string, valueNode *yml.Node) error {
				switch strings.ToLower(key) {
				case "name":
					param.Name = valueNode.Value
				case "value":
					param.Value = valueNode.Interface()
				case "default":
					param.Default = valueNode.Interface()
				case "datatype":
					param.DataType = valueNode.Value
				}
				return nil
			}); err != nil {
				return err
			}
			if param.Name == "" {
				return fmt.Errorf("param %d requires a name", index)
			}
			params = append(params, param)
			return nil
		})
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("params node should be a mapping or sequence")
	}
	return params, nil
}

func nameFromURL(URL string) string {
	base := filepath.Base(URL)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
