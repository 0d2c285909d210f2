package webpage

import (
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Config is the per-fetch configuration.
type Config struct {
	// QueryParams are merged into the URL's query string.
	QueryParams url.Values

	// Headers are sent with the request in addition to client defaults.
	Headers http.Header

	// RequireSuccess turns a non-2xx response into a *TransportError. When
	// false any response that carries a status is a completed fetch.
	RequireSuccess bool
}

func (c Config) clone() Config {
	out := Config{RequireSuccess: c.RequireSuccess}
	if len(c.QueryParams) > 0 {
		out.QueryParams = url.Values(cloneMulti(c.QueryParams))
	}
	if len(c.Headers) > 0 {
		out.Headers = c.Headers.Clone()
	}
	return out
}

func cloneMulti(m map[string][]string) map[string][]string {
	out := make(map[string][]string, len(m))
	for k, vs := range m {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

// Option keys accepted by ConfigFromOptions.
const (
	OptionParams         = "params"
	OptionHeaders        = "headers"
	OptionRequireSuccess = "require_success"
)

// ConfigFromOptions converts a loosely typed option bag into a Config.
//
// "params" and "headers" accept map[string]string, map[string][]string,
// url.Values, http.Header, or map[string]any whose values are strings,
// string slices, bools or numbers; nil means unset. A value of the wrong
// shape and a mapping holding unusable values are both reported as the same
// ConfigurationError. Unrecognized keys are rejected.
func ConfigFromOptions(options map[string]any) (Config, error) {
	var cfg Config

	var unknown []string
	for k := range options {
		switch k {
		case OptionParams, OptionHeaders, OptionRequireSuccess:
		default:
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return Config{}, &ConfigurationError{
			Field:  "options",
			Reason: "unrecognized option(s): " + strings.Join(unknown, ", "),
		}
	}

	if raw, ok := options[OptionParams]; ok {
		values, ok := toMulti(raw)
		if !ok {
			return Config{}, &ConfigurationError{
				Field:  OptionParams,
				Reason: "params must be a mapping of string to string",
			}
		}
		if len(values) > 0 {
			cfg.QueryParams = url.Values(values)
		}
	}

	if raw, ok := options[OptionHeaders]; ok {
		values, ok := toMulti(raw)
		if !ok {
			return Config{}, &ConfigurationError{
				Field:  OptionHeaders,
				Reason: "headers must be a mapping of string to string",
			}
		}
		if len(values) > 0 {
			cfg.Headers = http.Header{}
			for k, vs := range values {
				for _, v := range vs {
					cfg.Headers.Add(k, v)
				}
			}
		}
	}

	if raw, ok := options[OptionRequireSuccess]; ok {
		b, ok := raw.(bool)
		if !ok {
			return Config{}, &ConfigurationError{
				Field:  OptionRequireSuccess,
				Reason: "require_success must be a bool",
			}
		}
		cfg.RequireSuccess = b
	}

	return cfg, nil
}

func toMulti(raw any) (map[string][]string, bool) {
	switch m := raw.(type) {
	case nil:
		return nil, true
	case url.Values:
		return cloneMulti(m), true
	case http.Header:
		return cloneMulti(m), true
	case map[string][]string:
		return cloneMulti(m), true
	case map[string]string:
		out := make(map[string][]string, len(m))
		for k, v := range m {
			out[k] = []string{v}
		}
		return out, true
	case map[string]any:
		out := make(map[string][]string, len(m))
		for k, v := range m {
			vs, ok := scalarStrings(v)
			if !ok {
				return nil, false
			}
			out[k] = vs
		}
		return out, true
	}
	return nil, false
}

func scalarStrings(v any) ([]string, bool) {
	switch t := v.(type) {
	case string:
		return []string{t}, true
	case []string:
		return append([]string(nil), t...), true
	case bool:
		return []string{strconv.FormatBool(t)}, true
	case int:
		return []string{strconv.Itoa(t)}, true
	case int64:
		return []string{strconv.FormatInt(t, 10)}, true
	case float64:
		return []string{strconv.FormatFloat(t, 'f', -1, 64)}, true
	}
	return nil, false
}
