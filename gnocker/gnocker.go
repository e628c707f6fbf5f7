package gnocker

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gofiber/fiber"
	"github.com/gofiber/utils"
	"github.com/sirupsen/logrus"
	"github.com/zerbitx/gnockdir/querystring"
	"github.com/zerbitx/gnockdir/spec"
)

type (
	gnocker struct {
		app            *fiber.App
		store          *Store
		configBasePath string
		logger         logrus.FieldLogger
		port           int
		host           string
	}

	unknownSet string

	config struct {
		port           int
		configBasePath string
		host           string
		logger         logrus.FieldLogger
	}

	// Option is a function that can modify a default config
	Option func(c *config)

	// status is the body of the config endpoint
	status struct {
		Version    string   `json:"version"`
		Namespaces []string `json:"namespaces"`
		Sets       []string `json:"sets"`
	}
)

// GnockerHeader names the mock set a request should be served from
const GnockerHeader = "X-GNOCKER"

// Error implements the error interface
func (us unknownSet) Error() string {
	return fmt.Sprintf("no mock set named %s", string(us))
}

// New returns a new gnocker serving what resolve produces, on 127.0.0.1:8080 by default
func New(resolve ResolveFunc, options ...Option) *gnocker {
	logrus.SetReportCaller(true)
	c := &config{
		port:           8080,
		logger:         logrus.StandardLogger(),
		host:           "127.0.0.1",
		configBasePath: "/gnockconfig",
	}

	for _, applyOption := range options {
		applyOption(c)
	}

	app := fiber.New(&fiber.Settings{
		ServerHeader:          "GnockGnock",
		DisableStartupMessage: true,
	})

	g := &gnocker{
		logger:         c.logger,
		app:            app,
		store:          NewStore(resolve),
		port:           c.port,
		host:           c.host,
		configBasePath: strings.TrimRight(c.configBasePath, "/"),
	}

	g.initConfigEndpoints()
	g.app.All("/*", g.serve)

	return g
}

// Start starts the app
func (g *gnocker) Start() error {
	errc := make(chan error)

	go func() {
		g.logger.WithFields(logrus.Fields{"host": g.host, "port": g.port}).Info("main")
		errc <- g.app.Listen(fmt.Sprintf("%s:%d", g.host, g.port))
	}()

	return <-errc
}

// Shutdown gracefully shuts down the app
func (g *gnocker) Shutdown() error {
	if shutdownErr := g.app.Shutdown(); shutdownErr != nil {
		return fmt.Errorf("failed to shutdown app %w", shutdownErr)
	}

	return nil
}

// Reload re-resolves the fixture root and starts serving the result
func (g *gnocker) Reload() Snapshot {
	snap := g.store.Reload()
	g.logger.WithField("version", snap.Version).Info("reloaded")
	return snap
}

// WithLogger overrides the default logger
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithHost sets the host
func WithHost(host string) Option {
	return func(c *config) {
		c.host = host
	}
}

// WithPort sets the main app's port
func WithPort(port int) Option {
	return func(c *config) {
		c.port = port
	}
}

// WithConfigBasePath sets the base path of the status, proxy and reload endpoints
func WithConfigBasePath(basePath string) Option {
	return func(c *config) {
		c.configBasePath = basePath
	}
}

func (g *gnocker) serve(c *fiber.Ctx) {
	reqPath := utils.ImmutableString(c.Path())
	namespace, route := splitPath(reqPath)
	query := querystring.Extract(c.OriginalURL())
	mocks := g.store.Current().Mocks

	fields := logrus.Fields{
		"namespace": namespace,
		"route":     route,
		"method":    c.Method(),
	}

	if setName := c.Get(GnockerHeader); setName != "" {
		fields["set"] = setName
		g.logger.WithFields(fields).Debug("serving")

		record, err := lookupSet(mocks.Sets, setName, namespace, route)
		if err != nil {
			g.logger.WithError(err).WithFields(fields).Error("failed to find set")
			c.Status(http.StatusBadRequest).Send(http.StatusText(http.StatusBadRequest) + ": " + err.Error())
			return
		}
		if record == nil {
			c.SendStatus(http.StatusNotFound)
			return
		}

		g.respond(c, *record, query)
		return
	}

	g.logger.WithFields(fields).Debug("serving")

	record, ok := selectRecord(mocks.Data[namespace][route], query)
	if !ok {
		g.logger.WithFields(fields).Debug("no mock for route")
		c.SendStatus(http.StatusNotFound)
		return
	}

	g.respond(c, record, query)
}

func (g *gnocker) respond(c *fiber.Ctx, record spec.FixtureRecord, query map[string]string) {
	if record.Delay > 0 {
		time.Sleep(time.Duration(record.Delay) * time.Millisecond)
	}

	body, err := json.Marshal(record.Body(query))
	if err != nil {
		g.logger.WithError(err).WithField("label", record.Label).Error("failed to encode payload")
		c.SendStatus(http.StatusInternalServerError)
		return
	}

	for header, value := range record.Header {
		c.Set(header, value)
	}
	c.Status(record.Status)
	c.SendBytes(body)
}

// selectRecord picks the first condition candidate matching query, falling
// back to the first plain record.
func selectRecord(entries []spec.Entry, query map[string]string) (spec.FixtureRecord, bool) {
	for _, entry := range entries {
		if entry.Group == nil {
			continue
		}
		for _, candidate := range entry.Group.List {
			if candidate.Matches(query) {
				return candidate.Record, true
			}
		}
	}

	for _, entry := range entries {
		if entry.Record != nil {
			return *entry.Record, true
		}
	}

	return spec.FixtureRecord{}, false
}

func lookupSet(sets spec.MockSetTable, name, namespace, route string) (*spec.FixtureRecord, error) {
	set, ok := sets[name]
	if !ok {
		return nil, unknownSet(name)
	}

	record, ok := set[namespace][route]
	if !ok {
		return nil, nil
	}

	return &record, nil
}

// splitPath splits /ns/a/b into the namespace ns and the route a/b.
func splitPath(p string) (string, string) {
	p = strings.Trim(p, "/")
	if i := strings.Index(p, "/"); i >= 0 {
		return p[:i], p[i+1:]
	}
	return p, ""
}

func (g *gnocker) initConfigEndpoints() {
	g.logger.
		WithFields(logrus.Fields{
			http.MethodGet:  g.configBasePath,
			http.MethodPost: g.configBasePath + "/reload",
		}).Debug("config endpoints")

	g.app.Get(g.configBasePath, func(c *fiber.Ctx) {
		snap := g.store.Current()
		g.writeJSON(c, http.StatusOK, status{
			Version:    snap.Version.String(),
			Namespaces: namespaces(snap.Mocks.Data),
			Sets:       setNames(snap.Mocks.Sets),
		})
	})

	g.app.Get(g.configBasePath+"/proxy", func(c *fiber.Ctx) {
		proxy := g.store.Current().Mocks.Proxy
		if proxy == nil {
			proxy = spec.ProxyTable{}
		}
		g.writeJSON(c, http.StatusOK, proxy)
	})

	g.app.Post(g.configBasePath+"/reload", func(c *fiber.Ctx) {
		snap := g.Reload()
		g.writeJSON(c, http.StatusCreated, map[string]string{"version": snap.Version.String()})
	})
}

func (g *gnocker) writeJSON(c *fiber.Ctx, code int, v interface{}) {
	c.Set("Content-Type", "application/json")
	c.Status(code)

	encoder := json.NewEncoder(c.Fasthttp.Response.BodyWriter())
	encoder.SetIndent("", " ")

	if err := encoder.Encode(v); err != nil {
		g.logger.WithError(err).Error("Failed to encode response")
		c.SendStatus(http.StatusInternalServerError)
	}
}

func namespaces(data spec.NamespaceTable) []string {
	names := []string{}
	for name := range data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func setNames(sets spec.MockSetTable) []string {
	names := []string{}
	for name := range sets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
