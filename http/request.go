package http

import (
	"github.com/hearth-web/hearth/http/headers"
	"github.com/hearth-web/hearth/http/method"
	"github.com/hearth-web/hearth/http/proto"
	"github.com/hearth-web/hearth/internal/evloop"
	"github.com/hearth-web/hearth/internal/spill"
)

// Request carries a single parsed request. The parser fills it in place
// field by field, so until Parse reports completion the contents are
// partial
type Request struct {
	Method method.Method
	// URI is the percent-decoded path plus query string
	URI   string
	Proto proto.Proto
	// Headers keeps the parsed header pairs in arrival order, keys in
	// canonical Title-Case-Dash form
	Headers *headers.Headers
	// HeaderCount is the total number of observed header lines, duplicates
	// included
	HeaderCount int
	// ContentLength is the declared identity body length, zero when absent
	ContentLength int64
	// Chunked is set when the body arrives in chunked transfer encoding
	Chunked bool
	// Body accumulates the decoded body bytes, spilling to disk past the
	// configured threshold
	Body *spill.Buffer
	// BodySize is the total decoded body byte count
	BodySize int64
	// Loop is the connection's readiness dispatcher. Spillable buffers
	// built for the response must register here, otherwise the serializer
	// cannot pump them
	Loop *evloop.Dispatcher
}

func NewRequest(loop *evloop.Dispatcher, hdrs *headers.Headers, body *spill.Buffer) *Request {
	return &Request{
		Headers: hdrs,
		Body:    body,
		Loop:    loop,
	}
}

// Cookie returns the raw Cookie header value, if any
func (r *Request) Cookie() string {
	return r.Headers.Value("Cookie")
}

// Reset prepares the request for reuse with a fresh body buffer. The old
// body is not touched; its ownership has been handed over to whoever
// consumed the request
func (r *Request) Reset(body *spill.Buffer) {
	r.Method = method.Unknown
	r.URI = ""
	r.Proto = proto.Unknown
	r.Headers.Clear()
	r.HeaderCount = 0
	r.ContentLength = 0
	r.Chunked = false
	r.Body = body
	r.BodySize = 0
}
