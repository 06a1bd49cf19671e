package extension

// Option adjusts a single Lookup call.
type Option func(*Types)

// WithImports substitutes the alias table used to qualify package names.
func WithImports(imports Imports) Option {
	return func(t *Types) {
		t.imports = imports
	}
}
