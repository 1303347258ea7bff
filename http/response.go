package http

import (
	"strconv"

	jsoniter "github.com/json-iterator/go"

	"github.com/indigo-web/utils/strcomp"

	"github.com/hearth-web/hearth/http/cookie"
	"github.com/hearth-web/hearth/http/headers"
	"github.com/hearth-web/hearth/http/status"
	"github.com/hearth-web/hearth/internal/spill"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Response assembles the wire form of a reply: status line, header block,
// Set-Cookie lines and a body. The body is either a literal byte slice
// framed with Content-Length, or an externally owned spillable stream
// framed with chunked encoding. Chunked is the default.
type Response struct {
	code    status.Code
	message string
	headers *headers.Headers
	cookies []string
	body    []byte
	stream  *spill.Buffer
	chunked bool
}

func NewResponse() *Response {
	return &Response{
		code:    status.OK,
		headers: headers.New(),
		chunked: true,
	}
}

// SetStatus sets the code; the reason phrase is derived from the canonical
// table unless overridden via SetStatusMessage
func (r *Response) SetStatus(code status.Code) *Response {
	r.code = code
	r.message = ""
	return r
}

func (r *Response) SetStatusMessage(code status.Code, message string) *Response {
	r.code = code
	r.message = message
	return r
}

func (r *Response) Status() status.Code {
	return r.code
}

// Message returns the effective reason phrase
func (r *Response) Message() string {
	if len(r.message) > 0 {
		return r.message
	}

	return string(status.Text(r.code))
}

// SetHeader replaces every previous value of the name
func (r *Response) SetHeader(name, value string) *Response {
	r.headers.Set(name, value)
	return r
}

func (r *Response) Headers() *headers.Headers {
	return r.headers
}

// SetBody attaches a literal body. With chunked encoding disabled the
// Content-Length header is derived from it at render time
func (r *Response) SetBody(body []byte) *Response {
	r.body = body
	r.stream = nil
	return r
}

func (r *Response) Body() []byte {
	return r.body
}

// EnableChunked attaches an externally owned stream as the body and
// switches to chunked framing. Any Content-Length header is dropped, the
// two framings are mutually exclusive
func (r *Response) EnableChunked(stream *spill.Buffer) *Response {
	r.chunked = true
	r.stream = stream
	r.body = nil
	r.headers.Remove("Content-Length")
	return r
}

// DisableChunked switches to identity framing with Content-Length
func (r *Response) DisableChunked() *Response {
	r.chunked = false
	return r
}

func (r *Response) Chunked() bool {
	return r.chunked
}

// Stream returns the attached spillable body, nil when the body is literal
func (r *Response) Stream() *spill.Buffer {
	return r.stream
}

// AddSetCookie appends a Set-Cookie line. Lines are emitted in insertion
// order
func (r *Response) AddSetCookie(c cookie.Cookie) *Response {
	r.cookies = append(r.cookies, c.String())
	return r
}

// JSON marshals the model as the literal body and tags the content type
func (r *Response) JSON(model any) error {
	body, err := json.Marshal(model)
	if err != nil {
		return err
	}

	r.SetHeader("Content-Type", "application/json")
	r.SetBody(body)

	return nil
}

// RenderHeader serializes the status line, the header block, the
// Set-Cookie lines and the terminating empty line
func (r *Response) RenderHeader() []byte {
	buf := make([]byte, 0, 256)

	buf = append(buf, "HTTP/1.1 "...)
	buf = strconv.AppendUint(buf, uint64(r.code), 10)
	buf = append(buf, ' ')
	buf = append(buf, r.Message()...)
	buf = append(buf, '\r', '\n')

	chunked := r.chunked && r.stream != nil

	for _, pair := range r.headers.Unwrap() {
		if chunked && strcomp.EqualFold(pair.Key, "Content-Length") {
			continue
		}

		buf = append(buf, pair.Key...)
		buf = append(buf, ':', ' ')
		buf = append(buf, pair.Value...)
		buf = append(buf, '\r', '\n')
	}

	if chunked {
		buf = append(buf, "Transfer-Encoding: chunked\r\n"...)
	} else if r.stream == nil && !r.headers.Has("Content-Length") {
		buf = append(buf, "Content-Length: "...)
		buf = strconv.AppendInt(buf, int64(len(r.body)), 10)
		buf = append(buf, '\r', '\n')
	}

	for _, line := range r.cookies {
		buf = append(buf, "Set-Cookie: "...)
		buf = append(buf, line...)
		buf = append(buf, '\r', '\n')
	}

	buf = append(buf, '\r', '\n')

	return buf
}

// Render serializes the header block followed by the literal body. Streamed
// bodies are framed by the connection serializer instead
func (r *Response) Render() []byte {
	return append(r.RenderHeader(), r.body...)
}

const notFoundPage = `<!DOCTYPE html>
<html>
<head><title>404 Not Found</title></head>
<body>
<h1>404</h1>
<p>The requested resource was not found on this server.</p>
</body>
</html>`

// Html builds a ready text/html status-page response with identity framing
func Html(code status.Code, message string) *Response {
	resp := NewResponse().
		SetStatus(code).
		DisableChunked().
		SetHeader("Content-Type", "text/html")

	if code == status.NotFound {
		return resp.SetBody([]byte(notFoundPage))
	}

	page := "<html><head><title>" + strconv.Itoa(int(code)) + " " + resp.Message() +
		"</title></head><body><h1>" + strconv.Itoa(int(code)) + " " + resp.Message() +
		"</h1><p>" + message + "</p></body></html>"

	return resp.SetBody([]byte(page))
}
