package qnos

import "fmt"

// Config is a serialisable representation of the service configuration. It
// can be populated from JSON or YAML; the zero value is useful, all nested
// fields inherit their package defaults.
type Config struct {
	Meta    MetaConfig    `json:"meta" yaml:"meta"`
	Run     RunConfig     `json:"run" yaml:"run"`
	Archive ArchiveConfig `json:"archive" yaml:"archive"`
}

// MetaConfig points definition loading at a base location: a directory, an
// embedded filesystem or any other afs URL.
type MetaConfig struct {
	BaseURL string `json:"baseURL" yaml:"baseURL"`
}

// RunConfig bounds a simulation run.
type RunConfig struct {
	// MaxEvents caps the number of loop events one Run call processes;
	// zero runs until the event queue empties.
	MaxEvents int `json:"maxEvents" yaml:"maxEvents"`
}

// ArchiveConfig names where terminal process outputs are kept.
type ArchiveConfig struct {
	URL string `json:"url" yaml:"url"`
}

// DefaultConfig returns the configuration the service assembles with when
// none is supplied. Callers may modify the result before passing it to New.
func DefaultConfig() *Config {
	return &Config{}
}

// Validate returns an error describing invalid settings, or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.Run.MaxEvents < 0 {
		return fmt.Errorf("run.maxEvents must be >= 0")
	}
	return nil
}
