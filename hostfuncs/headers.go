package hostfuncs

import "strings"

// HeaderMap is an ordered list of header pairs with case-insensitive keys.
type HeaderMap struct {
	pairs [][2]string
}

// Get returns the first value stored under key.
func (m *HeaderMap) Get(key string) (string, bool) {
	if m == nil {
		return "", false
	}
	for _, p := range m.pairs {
		if strings.EqualFold(p[0], key) {
			return p[1], true
		}
	}
	return "", false
}

// Add appends a pair without touching existing values.
func (m *HeaderMap) Add(key, value string) {
	m.pairs = append(m.pairs, [2]string{key, value})
}

// Replace sets key to value, dropping any other values under key. A missing
// key is appended.
func (m *HeaderMap) Replace(key, value string) {
	kept := m.pairs[:0]
	replaced := false
	for _, p := range m.pairs {
		if !strings.EqualFold(p[0], key) {
			kept = append(kept, p)
			continue
		}
		if !replaced {
			kept = append(kept, [2]string{p[0], value})
			replaced = true
		}
	}
	m.pairs = kept
	if !replaced {
		m.Add(key, value)
	}
}

// Len returns the number of pairs.
func (m *HeaderMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.pairs)
}

// Pairs returns a copy of the stored pairs in insertion order.
func (m *HeaderMap) Pairs() [][2]string {
	if m == nil {
		return nil
	}
	out := make([][2]string, len(m.pairs))
	copy(out, m.pairs)
	return out
}
