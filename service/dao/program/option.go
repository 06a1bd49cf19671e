package program

import (
	"github.com/qnetlab/qnos/service/meta"
)

// Option customizes the program DAO.
type Option func(*Service)

// WithMetaService overrides the asset loader, typically to read from an
// embedded file system or a remote base URL.
func WithMetaService(service *meta.Service) Option {
	return func(s *Service) {
		s.metaService = service
	}
}
