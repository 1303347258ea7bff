package session

import (
	"strings"
	"sync"

	"github.com/dchest/uniuri"
)

const (
	idLength    = 16
	hexAlphabet = "0123456789abcdef"

	cookieName = "sessionId="
)

// Registry maps session ids to the files each session has uploaded. All
// operations, persistence included, serialize on a single mutex: lookups
// may arrive from worker goroutines, not only from the connection drivers
type Registry struct {
	mu       sync.Mutex
	sessions map[string][]string
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string][]string),
	}
}

// newID returns 16 lowercase hex digits of crypto-rand entropy, 64 bits
func newID() string {
	return uniuri.NewLenChars(idLength, []byte(hexAlphabet))
}

// ResolveOrCreate extracts a sessionId cookie from the raw Cookie header
// and resolves it against the registry. A known id is reused; anything
// else, a stale id included, yields a fresh session and isNew set
func (r *Registry) ResolveOrCreate(cookieHeader string) (id string, isNew bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := extractID(cookieHeader); ok {
		if _, found := r.sessions[existing]; found {
			return existing, false
		}
	}

	id = newID()
	r.sessions[id] = nil

	return id, true
}

// extractID searches the header for the literal sessionId= substring; the
// value extends to the next semicolon or the end of the string
func extractID(cookieHeader string) (string, bool) {
	at := strings.Index(cookieHeader, cookieName)
	if at < 0 {
		return "", false
	}

	value := cookieHeader[at+len(cookieName):]
	if semi := strings.IndexByte(value, ';'); semi >= 0 {
		value = value[:semi]
	}

	return value, true
}

// AddUploadedFile records that the session owns the named file. Insertion
// order is preserved; duplicates are not rejected
func (r *Registry) AddUploadedFile(id, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[id] = append(r.sessions[id], name)
}

// OwnsFile reports whether the session currently owns the named file
func (r *Registry) OwnsFile(id, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, owned := range r.sessions[id] {
		if owned == name {
			return true
		}
	}

	return false
}

// RemoveFile drops one occurrence of the named file from the session and
// reports whether anything was removed
func (r *Registry) RemoveFile(id, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	files := r.sessions[id]
	for i, owned := range files {
		if owned == name {
			r.sessions[id] = append(files[:i], files[i+1:]...)
			return true
		}
	}

	return false
}

// Len reports the number of known sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sessions)
}
