package headers

import (
	"github.com/indigo-web/iter"
	"github.com/indigo-web/utils/strcomp"
)

type Pair struct {
	Key, Value string
}

// Headers is an ordered storage of header pairs. Pairs are kept in the order
// they were added, keys are expected to be in the canonical Title-Case-Dash
// form (the parser canonicalizes them before insertion), and lookups fold
// case anyway so direct access with any casing stays correct.
type Headers struct {
	pairs      []Pair
	valuesBuff []string
}

func NewPreAlloc(n int) *Headers {
	return &Headers{
		pairs: make([]Pair, 0, n),
	}
}

func New() *Headers {
	return NewPreAlloc(0)
}

// Add appends a new pair, preserving insertion order
func (h *Headers) Add(key, value string) *Headers {
	h.pairs = append(h.pairs, Pair{
		Key:   key,
		Value: value,
	})
	return h
}

// Value returns the first value corresponding to the key, otherwise an
// empty string
func (h *Headers) Value(key string) string {
	return h.ValueOr(key, "")
}

// ValueOr returns either the first value corresponding to the key or the
// fallback passed via the second parameter
func (h *Headers) ValueOr(key, or string) string {
	value, found := h.Get(key)
	if !found {
		return or
	}

	return value
}

// Get returns a value corresponding to the key and a flag, indicating
// whether the key exists
func (h *Headers) Get(key string) (string, bool) {
	for _, pair := range h.pairs {
		if strcomp.EqualFold(key, pair.Key) {
			return pair.Value, true
		}
	}

	return "", false
}

// Values returns all the values by the key. Returns nil if the key has no
// entries.
//
// WARNING: calling it twice overrides the slice returned by the first call
func (h *Headers) Values(key string) []string {
	h.valuesBuff = h.valuesBuff[:0]

	for _, pair := range h.pairs {
		if strcomp.EqualFold(pair.Key, key) {
			h.valuesBuff = append(h.valuesBuff, pair.Value)
		}
	}

	if len(h.valuesBuff) == 0 {
		return nil
	}

	return h.valuesBuff
}

// Set replaces every entry of the key with a single pair, appended at the
// tail. Insertion order of the other pairs is preserved
func (h *Headers) Set(key, value string) *Headers {
	h.Remove(key)
	return h.Add(key, value)
}

// Remove drops every entry of the key
func (h *Headers) Remove(key string) {
	kept := h.pairs[:0]

	for _, pair := range h.pairs {
		if !strcomp.EqualFold(key, pair.Key) {
			kept = append(kept, pair)
		}
	}

	h.pairs = kept
}

// Has indicates whether there is an entry of the key
func (h *Headers) Has(key string) bool {
	_, found := h.Get(key)
	return found
}

// Len returns the total number of stored pairs, duplicates included
func (h *Headers) Len() int {
	return len(h.pairs)
}

// Iter returns an iterator over the pairs in insertion order
func (h *Headers) Iter() iter.Iterator[Pair] {
	return iter.Slice(h.pairs)
}

// Unwrap reveals the underlying pairs slice
func (h *Headers) Unwrap() []Pair {
	return h.pairs
}

// Clear drops all the entries, keeping the allocated space
func (h *Headers) Clear() {
	h.pairs = h.pairs[:0]
}
