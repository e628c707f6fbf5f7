package resolver

import (
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5"
	"github.com/sirupsen/logrus"
	"github.com/zerbitx/gnockdir/fixture"
	"github.com/zerbitx/gnockdir/querystring"
	"github.com/zerbitx/gnockdir/spec"
)

const (
	// SetDir is the reserved directory holding mock sets at the top of a fixture root.
	SetDir = "_set"

	dataName = "data"
)

// conditionName matches data file base names carrying query conditions, e.g. data?a=b&c=d
var conditionName = regexp.MustCompile(`^data\?.+=[^&]+(&.+=[^&]+)*$`)

type (
	// sink accumulates walk results. listSink backs the main tables, setSink the mock sets.
	sink interface {
		namespace(ns string)
		put(ns, route string, record spec.FixtureRecord)
		group(ns, route string, group spec.ConditionGroup)
	}

	listSink struct {
		tables spec.NamespaceTable
	}

	setSink struct {
		tables spec.SetNamespaceTable
	}

	walker struct {
		fs      billy.Filesystem
		root    string // fixture root, ignore patterns are relative to it
		loader  *fixture.Loader
		logger  logrus.FieldLogger
		ignore  []string
		setMode bool
		sink    sink
	}

	// frame is the state of one directory level.
	frame struct {
		dir       string
		route     string
		depth     int
		namespace string
	}
)

func newListSink() *listSink {
	return &listSink{tables: spec.NamespaceTable{}}
}

func (s *listSink) namespace(ns string) {
	s.tables[ns] = spec.RouteTable{}
}

func (s *listSink) put(ns, route string, record spec.FixtureRecord) {
	routes := s.routes(ns)
	routes[route] = append(routes[route], spec.Entry{Record: &record})
}

func (s *listSink) group(ns, route string, group spec.ConditionGroup) {
	routes := s.routes(ns)
	routes[route] = append(routes[route], spec.Entry{Group: &group})
}

func (s *listSink) routes(ns string) spec.RouteTable {
	routes, ok := s.tables[ns]
	if !ok {
		routes = spec.RouteTable{}
		s.tables[ns] = routes
	}
	return routes
}

func newSetSink() *setSink {
	return &setSink{tables: spec.SetNamespaceTable{}}
}

func (s *setSink) namespace(ns string) {
	s.tables[ns] = spec.SetRouteTable{}
}

func (s *setSink) put(ns, route string, record spec.FixtureRecord) {
	routes, ok := s.tables[ns]
	if !ok {
		routes = spec.SetRouteTable{}
		s.tables[ns] = routes
	}
	routes[route] = record
}

// group is never reached in set mode, condition files are not collected there.
func (s *setSink) group(string, string, spec.ConditionGroup) {}

// walk visits dir depth first. The first directory below the walk root names
// the namespace for its whole subtree.
func (w *walker) walk(f frame) {
	if f.depth == 1 {
		f.namespace = f.route
		w.sink.namespace(f.namespace)
	}

	entries, err := w.fs.ReadDir(f.dir)
	if err != nil {
		w.logger.WithError(err).WithField("dir", f.dir).Debug("skipping unreadable directory")
		return
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var candidates []spec.ConditionCandidate
	for _, entry := range entries {
		filePath := w.fs.Join(f.dir, entry.Name())
		if w.ignored(filePath) {
			continue
		}

		if entry.IsDir() {
			if entry.Name() == SetDir && f.route == "" {
				continue
			}

			next := entry.Name()
			if f.route != "" {
				next = f.route + "/" + next
			}
			w.walk(frame{dir: filePath, route: next, depth: f.depth + 1, namespace: f.namespace})
			continue
		}

		name := baseName(entry)
		switch {
		case !w.setMode && conditionName.MatchString(name):
			candidates = append(candidates, spec.ConditionCandidate{
				MatchKey: name,
				Params:   querystring.Extract(name),
				Record:   w.loader.Load(filePath),
			})
		case name == dataName:
			if f.depth == 0 {
				w.logger.WithField("file", filePath).Debug("skipping data file outside any namespace")
				continue
			}

			route := f.route
			if !w.setMode {
				route = parent(route)
			}
			w.sink.put(f.namespace, w.routeKey(route, f.namespace), w.loader.Load(filePath))
		}
	}

	if len(candidates) == 0 {
		return
	}
	if f.depth == 0 {
		w.logger.WithField("dir", f.dir).Debug("skipping condition files outside any namespace")
		return
	}

	w.sink.group(f.namespace, w.routeKey(parent(f.route), f.namespace), spec.ConditionGroup{
		List:  candidates,
		Label: candidates[0].Record.Label,
	})
}

// routeKey decodes route and strips the namespace from it. A route equal to
// or above the namespace is the namespace's root, "".
func (w *walker) routeKey(route, namespace string) string {
	decoded, err := url.PathUnescape(route)
	if err != nil {
		w.logger.WithError(err).WithField("route", route).Warn("failed to decode route, using it as is")
		decoded = route
	}

	if decoded == "" || decoded == namespace {
		return ""
	}

	return strings.TrimPrefix(decoded, namespace+"/")
}

func (w *walker) ignored(filePath string) bool {
	if len(w.ignore) == 0 {
		return false
	}

	rel, err := filepath.Rel(w.root, filePath)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)

	for _, pattern := range w.ignore {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}

	return false
}

// parent drops the last segment of a slash separated route.
func parent(route string) string {
	i := strings.LastIndex(route, "/")
	if i < 0 {
		return ""
	}
	return route[:i]
}

func baseName(entry os.FileInfo) string {
	return strings.TrimSuffix(entry.Name(), path.Ext(entry.Name()))
}
