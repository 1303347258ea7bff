package parser

import "github.com/hearth-web/hearth/http"

// Parser is a streaming request parser. It is fed arbitrarily fragmented
// input and accumulates state across calls; Parse reports true exactly once
// per request, on the transition to the completed state. A returned error
// is terminal: the parser latches it and refuses further input until Reset
type Parser interface {
	Parse(data []byte) (done bool, err error)
	Reset(request *http.Request)
}
