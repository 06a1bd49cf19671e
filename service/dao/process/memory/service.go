// Package memory keeps live process records in memory with state-filtered
// listing.
package memory

import (
	"context"
	"sync"

	"github.com/qnetlab/qnos/service/dao"
	"github.com/qnetlab/qnos/service/dao/criteria"
	"github.com/qnetlab/qnos/service/procsched"
)

// Service is an in-memory process record store.
type Service struct {
	processes map[int]*procsched.Process
	mux       sync.RWMutex
}

var _ dao.Service[int, procsched.Process] = (*Service)(nil)

// New creates an empty store.
func New() *Service {
	return &Service{processes: map[int]*procsched.Process{}}
}

// Save stores or overwrites a process record.
func (s *Service) Save(_ context.Context, p *procsched.Process) error {
	if p == nil {
		return dao.ErrNilEntity
	}
	if p.PID < 0 {
		return dao.ErrInvalidID
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	s.processes[p.PID] = p
	return nil
}

// Load returns the record for pid, or nil when the process is unknown.
func (s *Service) Load(_ context.Context, pid int) (*procsched.Process, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.processes[pid], nil
}

// Delete removes the record for pid.
func (s *Service) Delete(_ context.Context, pid int) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	if _, ok := s.processes[pid]; !ok {
		return dao.ErrNotFound
	}
	delete(s.processes, pid)
	return nil
}

// List returns the records admitted by the filter parameters.
func (s *Service) List(_ context.Context, parameters ...*dao.Parameter) ([]*procsched.Process, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	out := make([]*procsched.Process, 0, len(s.processes))
	for _, p := range s.processes {
		if !criteria.FilterByState(p.State, parameters) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}
