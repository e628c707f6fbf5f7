package encode

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v2"
)

// Format names an output encoding
type Format string

// Supported formats
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// JSONIndented encodes a value into a writer with a single space indentation
func JSONIndented(v interface{}, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", " ")

	return encoder.Encode(v)
}

// YAML encodes a value into a writer as a yaml document
func YAML(v interface{}, w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	if err := encoder.Encode(v); err != nil {
		return err
	}

	return encoder.Close()
}

// Write encodes v into w using format
func Write(format Format, v interface{}, w io.Writer) error {
	switch format {
	case FormatJSON, "":
		return JSONIndented(v, w)
	case FormatYAML:
		return YAML(v, w)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
