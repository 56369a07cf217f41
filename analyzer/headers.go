package analyzer

import (
	"net/http"
	"sort"
	"strings"
)

// Headers is an insertion-ordered response header map with case-insensitive keys.
// The zero value is ready to use.
type Headers struct {
	keys   []string          // original spelling, first-seen order
	values map[string]string // lowercased key -> value
}

// NewHeaders builds Headers from alternating name/value pairs
func NewHeaders(pairs ...string) Headers {
	var h Headers
	for i := 0; i+1 < len(pairs); i += 2 {
		h.Set(pairs[i], pairs[i+1])
	}
	return h
}

// HeadersFromHTTP copies a net/http header map. Multi-valued headers are joined with ", ".
// net/http does not keep wire order, so names are inserted sorted.
func HeadersFromHTTP(src http.Header) Headers {
	names := make([]string, 0, len(src))
	for name := range src {
		names = append(names, name)
	}
	sort.Strings(names)

	var h Headers
	for _, name := range names {
		h.Set(name, strings.Join(src[name], ", "))
	}
	return h
}

// Set stores a header value, replacing any value under the same name
func (h *Headers) Set(name, value string) {
	if h.values == nil {
		h.values = make(map[string]string)
	}
	key := strings.ToLower(strings.TrimSpace(name))
	if _, exists := h.values[key]; !exists {
		h.keys = append(h.keys, name)
	}
	h.values[key] = value
}

// Get returns the header value, or "" when absent
func (h Headers) Get(name string) string {
	return h.values[strings.ToLower(strings.TrimSpace(name))]
}

// Has reports whether the header was present, even if empty
func (h Headers) Has(name string) bool {
	_, ok := h.values[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Keys returns the header names in insertion order
func (h Headers) Keys() []string {
	out := make([]string, len(h.keys))
	copy(out, h.keys)
	return out
}

func (h Headers) Len() int {
	return len(h.keys)
}
