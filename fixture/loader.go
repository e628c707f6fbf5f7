// Package fixture loads individual mock data files and the http override
// files sitting next to them.
package fixture

import (
	"fmt"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/zerbitx/gnockdir/pathutil"
	"github.com/zerbitx/gnockdir/spec"
)

type (
	// Loader reads fixtures from a filesystem rooted at root.
	Loader struct {
		fs       billy.Filesystem
		root     string
		defaults spec.HTTPOptions
		registry Registry
	}

	// Option is a function that can modify a Loader
	Option func(l *Loader)
)

// HTTPFiles are the override file names looked up beside a data file, in order.
var HTTPFiles = []string{"http.js", "http.json", "http.yaml", "http.yml"}

// New returns a Loader using spec.DefaultHTTPOptions unless overridden.
func New(fs billy.Filesystem, root string, options ...Option) *Loader {
	l := &Loader{
		fs:       fs,
		root:     root,
		defaults: spec.DefaultHTTPOptions(),
	}

	for _, applyOption := range options {
		applyOption(l)
	}

	return l
}

// WithDefaults sets the options every fixture starts from.
func WithDefaults(o spec.HTTPOptions) Option {
	return func(l *Loader) {
		l.defaults = o.Clone()
	}
}

// WithRegistry sets the dynamic payload registry.
func WithRegistry(r Registry) Option {
	return func(l *Loader) {
		l.registry = r
	}
}

// Load reads the data file at file. An unreadable or unparsable file yields
// an empty object payload. The label is the name of the enclosing directory.
func (l *Loader) Load(file string) spec.FixtureRecord {
	record := spec.FixtureRecord{
		HTTPOptions: l.HTTPOptions(file),
		Label:       filepath.Base(filepath.Dir(file)),
	}

	if fn, ok := l.registry.Lookup(l.rel(file)); ok {
		record.Compute = fn
		return record
	}

	payload, err := l.Decode(file)
	if err != nil || payload == nil {
		payload = map[string]interface{}{}
	}
	record.Payload = payload

	return record
}

// HTTPOptions returns the defaults merged with the first http override file
// found in file's directory. Headers merge key by key. Errors leave the defaults.
func (l *Loader) HTTPOptions(file string) spec.HTTPOptions {
	opts := l.defaults.Clone()
	dir := filepath.Dir(file)

	for _, name := range HTTPFiles {
		overridePath := l.fs.Join(dir, name)
		if !pathutil.Exists(l.fs, overridePath) {
			continue
		}

		v, err := l.Decode(overridePath)
		if err != nil {
			return opts
		}
		override, ok := v.(map[string]interface{})
		if !ok && v != nil {
			return opts
		}

		return merge(opts, override)
	}

	return opts
}

// Decode reads and parses file according to its extension.
func (l *Loader) Decode(file string) (interface{}, error) {
	b, err := util.ReadFile(l.fs, file)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", file, err)
	}

	return decode(file, b)
}

func (l *Loader) rel(file string) string {
	rel, err := filepath.Rel(l.root, file)
	if err != nil {
		return file
	}
	return rel
}

func merge(opts spec.HTTPOptions, override map[string]interface{}) spec.HTTPOptions {
	if status, ok := toInt(override["status"]); ok {
		opts.Status = status
	}
	if delay, ok := toInt(override["delay"]); ok {
		opts.Delay = delay
	}
	if header, ok := override["header"].(map[string]interface{}); ok {
		for k, v := range header {
			opts.Header[k] = fmt.Sprint(v)
		}
	}

	return opts
}
