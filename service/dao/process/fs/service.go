// Package fs archives process outputs as JSON files, one per process, so
// the outcome of a run survives the simulation that produced it.
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/url"

	"github.com/qnetlab/qnos/internal/ctxlog"
	"github.com/qnetlab/qnos/service/dao"
	"github.com/qnetlab/qnos/service/dao/criteria"
	"github.com/qnetlab/qnos/service/procsched"
)

// Service is a filesystem-backed archive of process outputs.
type Service struct {
	basePath string
	fs       afs.Service
	mu       sync.RWMutex
}

var _ dao.Service[int, procsched.Output] = (*Service)(nil)

// New creates an archive rooted at basePath, creating the directory when
// absent.
func New(basePath string) (*Service, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	fs := afs.New()
	ctx := context.Background()
	if exists, _ := fs.Exists(ctx, basePath); !exists {
		if err := fs.Create(ctx, basePath, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create archive directory: %w", err)
		}
	}
	return &Service{
		basePath: url.Normalize(basePath, file.Scheme),
		fs:       fs,
	}, nil
}

// Save writes the output of one process.
func (s *Service) Save(ctx context.Context, output *procsched.Output) error {
	if output == nil {
		return dao.ErrNilEntity
	}
	if output.PID < 0 {
		return dao.ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(output)
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	location := s.outputPath(output.PID)
	if err := s.fs.Upload(ctx, location, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to archive output to %s: %w", location, err)
	}
	return nil
}

// Load reads the archived output for pid.
func (s *Service) Load(ctx context.Context, pid int) (*procsched.Output, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	location := s.outputPath(pid)
	exists, err := s.fs.Exists(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to check archive %s: %w", location, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: process %d", dao.ErrNotFound, pid)
	}
	data, err := s.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive %s: %w", location, err)
	}
	var output procsched.Output
	if err := json.Unmarshal(data, &output); err != nil {
		return nil, fmt.Errorf("failed to unmarshal archive %s: %w", location, err)
	}
	return &output, nil
}

// Delete removes the archived output for pid.
func (s *Service) Delete(ctx context.Context, pid int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	location := s.outputPath(pid)
	exists, err := s.fs.Exists(ctx, location)
	if err != nil {
		return fmt.Errorf("failed to check archive %s: %w", location, err)
	}
	if !exists {
		return fmt.Errorf("%w: process %d", dao.ErrNotFound, pid)
	}
	if err := s.fs.Delete(ctx, location); err != nil {
		return fmt.Errorf("failed to delete archive %s: %w", location, err)
	}
	return nil
}

// List returns every archived output admitted by the filter parameters.
// Unreadable entries are skipped with a warning so one corrupt file does
// not hide the rest of the archive.
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*procsched.Output, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objects, err := s.fs.List(ctx, s.basePath, option.NewRecursive(true))
	if err != nil {
		return nil, fmt.Errorf("failed to list archive: %w", err)
	}

	var outputs []*procsched.Output
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		data, err := s.fs.Download(ctx, object)
		if err != nil {
			ctxlog.From(ctx).Warn("skipping unreadable archive entry", "url", object.URL(), "error", err)
			continue
		}
		var output procsched.Output
		if err := json.Unmarshal(data, &output); err != nil {
			ctxlog.From(ctx).Warn("skipping malformed archive entry", "url", object.URL(), "error", err)
			continue
		}
		if !criteria.FilterByState(output.State, parameters) {
			continue
		}
		outputs = append(outputs, &output)
	}
	return outputs, nil
}

func (s *Service) outputPath(pid int) string {
	return path.Join(s.basePath, fmt.Sprintf("%d.json", pid))
}
