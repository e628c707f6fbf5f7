package fixture

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ohler55/ojg/oj"
	"github.com/ohler55/ojg/sen"
	"gopkg.in/yaml.v2"
)

var (
	errEmpty = errors.New("empty document")

	jsExport    = regexp.MustCompile(`(module\.exports\s*=|export\s+default)\s*`)
	jsDirective = regexp.MustCompile(`^\s*(?:['"]use strict['"]\s*;?\s*)+`)
	jsTrailer   = regexp.MustCompile(`;\s*$`)
)

// decode parses the contents of a fixture, http or proxy file by extension.
// .js files are read as relaxed object literals, never evaluated.
func decode(name string, b []byte) (interface{}, error) {
	if len(strings.TrimSpace(string(b))) == 0 {
		return nil, errEmpty
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".js":
		v, err := sen.Parse(objectLiteral(b))
		if err != nil {
			return nil, fmt.Errorf("parsing %s as object literal: %w", name, err)
		}
		return v, nil
	case ".yaml", ".yml":
		var v interface{}
		if err := yaml.Unmarshal(b, &v); err != nil {
			return nil, fmt.Errorf("parsing %s as yaml: %w", name, err)
		}
		return normalize(v), nil
	default:
		v, err := oj.Parse(b)
		if err != nil {
			return nil, fmt.Errorf("parsing %s as json: %w", name, err)
		}
		return v, nil
	}
}

// objectLiteral reduces a .js module to the literal it exports: comments,
// directives and the export assignment are dropped.
func objectLiteral(b []byte) []byte {
	src := stripComments(b)
	src = jsDirective.ReplaceAll(src, nil)
	if loc := jsExport.FindIndex(src); loc != nil {
		src = src[loc[1]:]
	}
	return jsTrailer.ReplaceAll(src, nil)
}

// stripComments removes // and /* */ comments outside of string literals.
func stripComments(b []byte) []byte {
	out := make([]byte, 0, len(b))
	var quote byte

	for i := 0; i < len(b); i++ {
		c := b[i]
		switch {
		case quote != 0:
			out = append(out, c)
			if c == '\\' && i+1 < len(b) {
				i++
				out = append(out, b[i])
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'' || c == '`':
			quote = c
			out = append(out, c)
		case c == '/' && i+1 < len(b) && b[i+1] == '/':
			for i < len(b) && b[i] != '\n' {
				i++
			}
			if i < len(b) {
				out = append(out, '\n')
			}
		case c == '/' && i+1 < len(b) && b[i+1] == '*':
			end := strings.Index(string(b[i+2:]), "*/")
			if end < 0 {
				return out
			}
			i += end + 3
			out = append(out, ' ')
		default:
			out = append(out, c)
		}
	}

	return out
}

// normalize turns yaml.v2's map[interface{}]interface{} into JSON friendly maps.
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = normalize(val)
		}
		return m
	case []interface{}:
		for i := range t {
			t[i] = normalize(t[i])
		}
		return t
	default:
		return v
	}
}

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
