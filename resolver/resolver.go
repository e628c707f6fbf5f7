// Package resolver builds the route tables a mock server serves from a
// directory of fixture files whose layout mirrors URL paths.
//
// A root looks like:
//
//	root/
//	  proxy.js                  proxy table, opaque
//	  api/                      namespace "api"
//	    user/info/ok/data.json  route "user/info", label "ok"
//	    user/info/ok/http.json  status, delay and header overrides
//	    user/list/byid/data?id=1.json
//	    user/list/byid/data?id=2.json
//	  _set/
//	    empty/api/user/info/data.json
//
// Resolution never fails: anything unreadable degrades to an empty or
// default value and is at most logged.
package resolver

import (
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/sirupsen/logrus"
	"github.com/zerbitx/gnockdir/fixture"
	"github.com/zerbitx/gnockdir/pathutil"
	"github.com/zerbitx/gnockdir/spec"
)

type (
	// Resolver turns fixture roots into spec.ResolvedMocks.
	Resolver struct {
		logger   logrus.FieldLogger
		defaults spec.HTTPOptions
		registry fixture.Registry
		ignore   []string
	}

	// Option is a function that can modify a Resolver
	Option func(r *Resolver)
)

// ProxyFiles are the proxy table names looked up directly under a root, in order.
var ProxyFiles = []string{"proxy.js", "proxy.json", "proxy.yaml", "proxy.yml"}

// New returns a Resolver logging to the standard logrus logger.
func New(options ...Option) *Resolver {
	r := &Resolver{
		logger:   logrus.StandardLogger(),
		defaults: spec.DefaultHTTPOptions(),
	}

	for _, applyOption := range options {
		applyOption(r)
	}

	return r
}

// WithLogger overrides the default logger
func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Resolver) {
		r.logger = l
	}
}

// WithDefaults sets the http options fixtures start from
func WithDefaults(o spec.HTTPOptions) Option {
	return func(r *Resolver) {
		r.defaults = o.Clone()
	}
}

// WithRegistry sets the functions computing dynamic payloads
func WithRegistry(reg fixture.Registry) Option {
	return func(r *Resolver) {
		r.registry = reg
	}
}

// WithIgnore skips entries whose slash path relative to the fixture root matches any doublestar
// pattern. Mock set entries are matched with their _set/<name>/ prefix.
func WithIgnore(patterns ...string) Option {
	return func(r *Resolver) {
		r.ignore = append(r.ignore, patterns...)
	}
}

// Resolve resolves the fixture root at p, relative to the working directory.
// A missing root yields an empty ResolvedMocks.
func (r *Resolver) Resolve(p string) spec.ResolvedMocks {
	root := pathutil.MockPath(p)
	if !pathutil.IsMockDir(root) {
		return spec.ResolvedMocks{}
	}

	return r.ResolveFS(osfs.New("/"), root)
}

// ResolveFS resolves the fixture root at root inside fs.
func (r *Resolver) ResolveFS(fs billy.Filesystem, root string) spec.ResolvedMocks {
	if !pathutil.IsDir(fs, root) {
		return spec.ResolvedMocks{}
	}

	loader := fixture.New(fs, root, fixture.WithDefaults(r.defaults), fixture.WithRegistry(r.registry))

	data := newListSink()
	r.walker(fs, root, loader, data, false).walk(frame{dir: root})

	return spec.ResolvedMocks{
		Data:  data.tables,
		Proxy: r.loadProxy(fs, root, loader),
		Sets:  r.loadSets(fs, root, loader),
	}
}

func (r *Resolver) walker(fs billy.Filesystem, root string, loader *fixture.Loader, s sink, setMode bool) *walker {
	return &walker{
		fs:      fs,
		root:    root,
		loader:  loader,
		logger:  r.logger,
		ignore:  r.ignore,
		setMode: setMode,
		sink:    s,
	}
}

// loadProxy returns the proxy table under root, or an empty one.
func (r *Resolver) loadProxy(fs billy.Filesystem, root string, loader *fixture.Loader) spec.ProxyTable {
	proxy := spec.ProxyTable{}

	for _, name := range ProxyFiles {
		proxyPath := fs.Join(root, name)
		if !pathutil.Exists(fs, proxyPath) {
			continue
		}
		if pathutil.IsDir(fs, proxyPath) {
			return proxy
		}

		v, err := loader.Decode(proxyPath)
		if err != nil {
			r.logger.WithError(err).WithField("file", proxyPath).Error("failed to load proxy table")
			return proxy
		}

		table, ok := v.(map[string]interface{})
		if !ok {
			r.logger.WithField("file", proxyPath).Error("proxy table is not an object")
			return proxy
		}

		return spec.ProxyTable(table)
	}

	return proxy
}

// loadSets walks every directory under root/_set in set mode.
func (r *Resolver) loadSets(fs billy.Filesystem, root string, loader *fixture.Loader) spec.MockSetTable {
	sets := spec.MockSetTable{}

	setPath := fs.Join(root, SetDir)
	if !pathutil.IsDir(fs, setPath) {
		return sets
	}

	entries, err := fs.ReadDir(setPath)
	if err != nil {
		r.logger.WithError(err).WithField("dir", setPath).Debug("skipping unreadable set directory")
		return sets
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			r.logger.WithField("file", entry.Name()).Debug("skipping file in set directory")
			continue
		}

		setRoot := fs.Join(setPath, entry.Name())
		tables := newSetSink()
		r.walker(fs, root, loader, tables, true).walk(frame{dir: setRoot})
		sets[entry.Name()] = tables.tables
	}

	return sets
}
