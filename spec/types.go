package spec

import (
	"encoding/json"
)

type (
	// PayloadFunc computes a response body from the request's query parameters.
	PayloadFunc func(query map[string]string) interface{}

	// HTTPOptions are the per route response settings a fixture directory can override.
	HTTPOptions struct {
		Delay  int               `json:"delay" yaml:"delay"`
		Status int               `json:"status" yaml:"status"`
		Header map[string]string `json:"header" yaml:"header"`
	}

	// FixtureRecord is a single mock response loaded from one data file.
	FixtureRecord struct {
		HTTPOptions `yaml:",inline"`

		Label   string      `json:"label" yaml:"label"`
		Payload interface{} `json:"data" yaml:"data"`
		Compute PayloadFunc `json:"-" yaml:"-"`
	}

	// ConditionCandidate is one query conditioned variant, e.g. data?a=b.json
	ConditionCandidate struct {
		MatchKey string            `json:"filename" yaml:"filename"`
		Params   map[string]string `json:"params" yaml:"params"`
		Record   FixtureRecord     `json:"data" yaml:"data"`
	}

	// ConditionGroup holds mutually exclusive variants selected by query parameters.
	ConditionGroup struct {
		List  []ConditionCandidate `json:"list" yaml:"list"`
		Label string               `json:"label" yaml:"label"`
	}

	// Entry is either a plain record or a condition group. Exactly one is set.
	Entry struct {
		Record *FixtureRecord
		Group  *ConditionGroup
	}

	// RouteTable maps a namespace relative route to its entries.
	RouteTable map[string][]Entry

	// NamespaceTable maps a top level namespace to its routes.
	NamespaceTable map[string]RouteTable

	// ProxyTable is the opaque proxy configuration found at the fixture root.
	ProxyTable map[string]interface{}

	// SetRouteTable maps a route to its single record in a mock set.
	SetRouteTable map[string]FixtureRecord

	// SetNamespaceTable is a NamespaceTable built in set mode.
	SetNamespaceTable map[string]SetRouteTable

	// MockSetTable maps a set name to its tables.
	MockSetTable map[string]SetNamespaceTable

	// ResolvedMocks is everything resolved from one fixture root.
	ResolvedMocks struct {
		Data  NamespaceTable `json:"data" yaml:"data"`
		Proxy ProxyTable     `json:"_proxy" yaml:"_proxy"`
		Sets  MockSetTable   `json:"_set" yaml:"_set"`
	}
)

// DefaultHTTPOptions returns a fresh copy of the options every fixture starts from.
func DefaultHTTPOptions() HTTPOptions {
	return HTTPOptions{
		Delay:  0,
		Status: 200,
		Header: map[string]string{
			"Content-Type":                "application/json; charset=UTF-8",
			"Connection":                  "Close",
			"Access-Control-Allow-Origin": "*",
		},
	}
}

// Clone returns a copy whose header map can be modified independently.
func (o HTTPOptions) Clone() HTTPOptions {
	header := make(map[string]string, len(o.Header))
	for k, v := range o.Header {
		header[k] = v
	}
	o.Header = header
	return o
}

// Dynamic reports whether the record's body is computed per request.
func (r FixtureRecord) Dynamic() bool {
	return r.Compute != nil
}

// Body returns the static payload or the computed one for the given query.
func (r FixtureRecord) Body(query map[string]string) interface{} {
	if r.Compute != nil {
		return r.Compute(query)
	}
	return r.Payload
}

// Matches reports whether every condition parameter is present in query with the same value.
func (c ConditionCandidate) Matches(query map[string]string) bool {
	if len(c.Params) == 0 {
		return false
	}
	for k, v := range c.Params {
		if got, ok := query[k]; !ok || got != v {
			return false
		}
	}
	return true
}

func (e Entry) value() interface{} {
	if e.Group != nil {
		return e.Group
	}
	return e.Record
}

// MarshalJSON encodes the entry as whichever of record or group it holds.
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.value())
}

// MarshalYAML encodes the entry as whichever of record or group it holds.
func (e Entry) MarshalYAML() (interface{}, error) {
	return e.value(), nil
}

// Empty reports whether nothing was resolved, i.e. the fixture root did not exist.
func (m ResolvedMocks) Empty() bool {
	return m.Data == nil && m.Proxy == nil && m.Sets == nil
}

// MarshalJSON encodes an empty resolution as {} and anything else with all three tables.
func (m ResolvedMocks) MarshalJSON() ([]byte, error) {
	if m.Empty() {
		return []byte("{}"), nil
	}
	type resolved ResolvedMocks
	return json.Marshal(resolved(m))
}

// MarshalYAML encodes an empty resolution as an empty mapping.
func (m ResolvedMocks) MarshalYAML() (interface{}, error) {
	if m.Empty() {
		return map[string]interface{}{}, nil
	}
	type resolved ResolvedMocks
	return resolved(m), nil
}
