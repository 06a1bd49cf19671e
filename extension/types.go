package extension

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/viant/x"
)

// Types resolves data type expressions like "float64", "[]int" or
// "request.EprRequest" against registered Go types. Registering a named
// type also records an alias for its package (the last path segment), so
// expressions may qualify types the way source code would.
type Types struct {
	x.Registry
	imports Imports
}

// Register adds a data type to the registry.
func (t *Types) Register(dataType *x.Type) {
	if dataType.PkgPath != "" {
		if idx := strings.LastIndex(dataType.PkgPath, "/"); idx > 0 {
			if !t.imports.HasPkgPath(dataType.PkgPath) {
				t.imports = append(t.imports, &Import{Package: dataType.PkgPath[idx+1:], PkgPath: dataType.PkgPath})
			}
		}
	}
	t.Registry.Register(dataType)
}

// Lookup resolves a data type expression, applying a leading slice or map
// modifier to the registered base type. It returns nil when the base type
// is unknown.
func (t *Types) Lookup(dataType string, options ...Option) *x.Type {
	temp := &Types{imports: t.imports}
	for _, opt := range options {
		opt(temp)
	}

	typeModifier := ""
	if idx := strings.LastIndex(dataType, "]"); idx != -1 {
		typeModifier = dataType[:idx+1]
		dataType = dataType[idx+1:]
	}

	if idx := strings.LastIndex(dataType, "."); idx != -1 {
		pkg := dataType[:idx]
		typeName := dataType[idx+1:]
		if pkgPath := temp.imports.PkgPath(pkg); pkgPath != "" {
			pkg = pkgPath
		}
		dataType = fmt.Sprintf("%s.%s", pkg, typeName)
	}
	ret := t.Registry.Lookup(dataType)
	if ret == nil {
		return nil
	}
	rType := ret.Type

	switch strings.TrimSpace(typeModifier) {
	case "[]":
		rType = reflect.SliceOf(rType)
	case "[][]":
		rType = reflect.SliceOf(reflect.SliceOf(rType))
	case "map[string]":
		rType = reflect.MapOf(reflect.TypeOf(""), rType)
	case "map[string][]":
		rType = reflect.MapOf(reflect.TypeOf(""), reflect.SliceOf(rType))
	}
	if rType != ret.Type {
		return x.NewType(rType)
	}
	return ret
}

// Imports returns the alias table accumulated by Register.
func (t *Types) Imports() Imports {
	return t.imports
}

// NewTypes creates an empty type registry.
func NewTypes(options ...x.RegistryOption) *Types {
	return &Types{
		Registry: *x.NewRegistry(options...),
	}
}
