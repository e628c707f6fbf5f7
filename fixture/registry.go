package fixture

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/zerbitx/gnockdir/spec"
)

// Registry maps fixture files, relative to the fixture root, to functions
// computing their payload. Registered files are not parsed.
type Registry map[string]spec.PayloadFunc

// Register binds fn to the data file at rel, e.g. "api/user/ok/data.js".
func (r Registry) Register(rel string, fn spec.PayloadFunc) {
	r[registryKey(rel)] = fn
}

// Lookup returns the function registered for rel, if any.
func (r Registry) Lookup(rel string) (spec.PayloadFunc, bool) {
	if r == nil {
		return nil, false
	}
	fn, ok := r[registryKey(rel)]
	return fn, ok
}

func registryKey(rel string) string {
	return strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(rel)), "/")
}
