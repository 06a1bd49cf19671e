package extension

// Import aliases one Go package path for use inside data type expressions.
type Import struct {
	Package string
	PkgPath string
}

// Imports is an ordered alias table.
type Imports []*Import

// PkgPath returns the path registered under the alias pkg, or the empty
// string when the alias is unknown.
func (i Imports) PkgPath(pkg string) string {
	for _, imp := range i {
		if imp.Package == pkg {
			return imp.PkgPath
		}
	}
	return ""
}

// HasPkgPath reports whether pkgPath already has an alias.
func (i Imports) HasPkgPath(pkgPath string) bool {
	for _, imp := range i {
		if imp.PkgPath == pkgPath {
			return true
		}
	}
	return false
}
