// Package meta loads configuration assets (topologies, unit modules,
// programs) from any location the abstract file system understands,
// expanding ${env.KEY} expressions before decoding.
package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
	"gopkg.in/yaml.v3"
)

// Service resolves asset URLs against an optional base location and decodes
// their content. The zero extension and ".yaml"/".yml" decode as YAML,
// ".json" as JSON.
type Service struct {
	fs      afs.Service
	baseURL string
	options []storage.Option
}

// New creates a meta service. Relative URLs passed to Load and Download
// resolve against baseURL; storage options (an embedded file system, auth
// providers) apply to every fetch.
func New(fs afs.Service, baseURL string, options ...storage.Option) *Service {
	return &Service{fs: fs, baseURL: baseURL, options: options}
}

// ResolveURL returns the absolute location of an asset.
func (s *Service) ResolveURL(URL string) string {
	if s.baseURL == "" || !url.IsRelative(URL) {
		return URL
	}
	return url.Join(s.baseURL, URL)
}

// Exists reports whether an asset is present.
func (s *Service) Exists(ctx context.Context, URL string) (bool, error) {
	return s.fs.Exists(ctx, s.ResolveURL(URL), s.options...)
}

// Download fetches the raw asset with ${env.KEY} expressions expanded.
func (s *Service) Download(ctx context.Context, URL string) ([]byte, error) {
	location := s.ResolveURL(URL)
	data, err := s.fs.DownloadWithURL(ctx, location, s.options...)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", location, err)
	}
	return []byte(expandEnvExpr(string(data))), nil
}

// Load fetches the asset at URL and decodes it into target.
func (s *Service) Load(ctx context.Context, URL string, target interface{}) error {
	data, err := s.Download(ctx, URL)
	if err != nil {
		return err
	}
	if strings.ToLower(path.Ext(URL)) == ".json" {
		if err = json.Unmarshal(data, target); err != nil {
			return fmt.Errorf("failed to decode %s: %w", URL, err)
		}
		return nil
	}
	if err = yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to decode %s: %w", URL, err)
	}
	return nil
}
