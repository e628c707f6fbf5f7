// Package querystring extracts the parameters encoded after a '?' in fixture
// file names and request URLs.
package querystring

import (
	"net/url"
	"strings"
)

// Extract returns the key/value pairs following the first '?' in str.
// Values are unescaped, keys are kept as written. A value that fails to
// unescape is kept raw. Without a '?' the result is empty.
func Extract(str string) map[string]string {
	params := map[string]string{}

	parts := strings.SplitN(str, "?", 3)
	if len(parts) < 2 || parts[1] == "" {
		return params
	}

	for _, pair := range strings.Split(parts[1], "&") {
		kv := strings.SplitN(pair, "=", 3)
		key, value := kv[0], ""
		if len(kv) > 1 {
			value = kv[1]
		}
		if unescaped, err := url.PathUnescape(value); err == nil {
			value = unescaped
		}
		params[key] = value
	}

	return params
}
