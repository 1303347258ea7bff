package http1

import (
	"bytes"
	"strconv"
	"time"

	"github.com/indigo-web/utils/arena"
	"github.com/indigo-web/utils/strcomp"
	"github.com/indigo-web/utils/uf"

	"github.com/hearth-web/hearth/http"
	"github.com/hearth-web/hearth/http/headers"
	"github.com/hearth-web/hearth/http/method"
	"github.com/hearth-web/hearth/http/proto"
	"github.com/hearth-web/hearth/http/status"
	"github.com/hearth-web/hearth/settings"
)

// Parser is a streaming HTTP/1.1 request parser. Input arrives in
// arbitrarily fragmented slices; whatever cannot be consumed yet stays in
// the accumulation buffer until the next call. Terminal errors latch: once
// a request is rejected, the parser refuses everything until Reset.
type Parser struct {
	request *http.Request
	cfg     settings.Settings

	state parserState
	buf   []byte
	err   error

	uriArena arena.Arena[byte]

	headerCount      int
	hasContentLength bool
	hostSeen         bool

	hasChunkSize bool
	chunkSize    int64

	headerStart time.Time
	bodyStart   time.Time

	onHost func(host string)
}

func New(request *http.Request, cfg settings.Settings) *Parser {
	initial := 1024
	if int(cfg.RequestLine.MaxSize) < initial {
		initial = int(cfg.RequestLine.MaxSize)
	}

	return &Parser{
		request:  request,
		cfg:      cfg,
		uriArena: arena.NewArena[byte](initial, int(cfg.RequestLine.MaxSize)+8),
	}
}

// OnHost registers a callback fired on the first Host header of every
// request. The virtual-host layer uses it to pick a server before the
// request is even complete
func (p *Parser) OnHost(cb func(host string)) {
	p.onHost = cb
}

// HeaderStart reports when the request line was completed, the zero time
// before that. Consumed by the external timeout watchdog
func (p *Parser) HeaderStart() time.Time {
	return p.headerStart
}

// BodyStart reports when the header section was completed, the zero time
// before that
func (p *Parser) BodyStart() time.Time {
	return p.bodyStart
}

// Parse feeds another fragment of input. It returns true exactly once, on
// completing a request. The returned error carries the HTTP status to
// reply with and is sticky until Reset
func (p *Parser) Parse(data []byte) (done bool, err error) {
	switch p.state {
	case eError:
		return false, p.err
	case eCompleted:
		return false, nil
	}

	p.buf = append(p.buf, data...)

	progress := true
	for progress && p.state < eCompleted {
		switch p.state {
		case eRequestLine:
			progress = p.parseRequestLine()
		case eHeaders:
			progress = p.parseHeaders()
		case eBody:
			progress = p.parseBody()
		case eChunkedBody:
			progress = p.parseChunkedBody()
		}
	}

	if p.state == eError {
		return false, p.err
	}

	return p.state == eCompleted, nil
}

// Reset prepares the parser for the next request of the connection
func (p *Parser) Reset(request *http.Request) {
	p.request = request
	p.state = eRequestLine
	p.buf = p.buf[:0]
	p.err = nil
	p.headerCount = 0
	p.hasContentLength = false
	p.hostSeen = false
	p.hasChunkSize = false
	p.chunkSize = 0
	p.headerStart = time.Time{}
	p.bodyStart = time.Time{}
	p.uriArena.Clear()
}

func (p *Parser) abort(err error) bool {
	p.state = eError
	p.err = err
	return false
}

// consume drops n parsed bytes from the head of the accumulation buffer
func (p *Parser) consume(n int) {
	p.buf = append(p.buf[:0], p.buf[n:]...)
}

func (p *Parser) parseRequestLine() bool {
	lf := bytes.IndexByte(p.buf, '\n')
	if lf < 0 {
		if len(p.buf) > int(p.cfg.RequestLine.MaxSize)+2 {
			return p.abort(status.ErrTooLongRequestLine)
		}

		return false
	}

	if lf == 0 || p.buf[lf-1] != '\r' {
		return p.abort(status.ErrBadRequest)
	}

	line := p.buf[:lf-1]
	if len(line) > int(p.cfg.RequestLine.MaxSize) {
		return p.abort(status.ErrTooLongRequestLine)
	}
	if len(line) == 0 || line[0] == ' ' || line[0] == '\t' {
		return p.abort(status.ErrBadRequest)
	}

	sp := bytes.IndexByte(line, ' ')
	if sp < 0 {
		return p.abort(status.ErrBadRequest)
	}

	m := method.Parse(uf.B2S(line[:sp]))
	if m == method.Unknown {
		return p.abort(status.ErrBadMethod)
	}

	rest := line[sp+1:]
	sp = bytes.IndexByte(rest, ' ')
	if sp < 0 {
		return p.abort(status.ErrBadRequest)
	}

	rawURI := rest[:sp]
	protoToken := rest[sp+1:]

	if len(rawURI) == 0 {
		return p.abort(status.ErrBadURI)
	}
	if rawURI[0] != '/' && !bytes.Contains(rawURI, []byte("://")) {
		return p.abort(status.ErrBadURI)
	}

	// a third space means trailing garbage after the protocol token
	if bytes.IndexByte(protoToken, ' ') >= 0 {
		return p.abort(status.ErrBadRequest)
	}
	if !bytes.HasPrefix(protoToken, []byte("HTTP/")) {
		return p.abort(status.ErrBadRequest)
	}

	version := proto.FromBytes(protoToken)
	if version == proto.Unknown {
		return p.abort(status.ErrUnsupportedProtocol)
	}

	uri, ok := p.decodeURI(rawURI)
	if !ok {
		return p.abort(status.ErrURITooLong)
	}

	p.request.Method = m
	p.request.URI = uri
	p.request.Proto = version
	p.headerStart = time.Now()
	p.state = eHeaders
	p.consume(lf + 1)

	return true
}

// decodeURI percent-decodes the raw URI into the scratch arena: %HH becomes
// the byte with hex value HH, + becomes a space, malformed escapes stay
// literal
func (p *Parser) decodeURI(raw []byte) (uri string, ok bool) {
	for i := 0; i < len(raw); i++ {
		c := raw[i]

		switch {
		case c == '+':
			c = ' '
		case c == '%' && i+2 < len(raw):
			hi, lo := unhex[raw[i+1]], unhex[raw[i+2]]
			if hi != badHex && lo != badHex {
				c = hi<<4 | lo
				i += 2
			}
		}

		if !p.uriArena.Append(c) {
			return "", false
		}
	}

	return uf.B2S(p.uriArena.Finish()), true
}

func (p *Parser) parseHeaders() bool {
	lf := bytes.IndexByte(p.buf, '\n')
	if lf < 0 {
		if max := p.cfg.Headers.MaxLineSize; max != 0 && len(p.buf) > int(max)+2 {
			return p.abort(status.ErrHeaderTooLarge)
		}

		return false
	}

	if lf == 0 || p.buf[lf-1] != '\r' {
		return p.abort(status.ErrBadRequest)
	}

	line := p.buf[:lf-1]
	if len(line) == 0 {
		p.consume(lf + 1)
		return p.completeHeaders()
	}

	p.headerCount++
	if p.headerCount > int(p.cfg.Headers.MaxNumber) {
		return p.abort(status.ErrTooManyHeaders)
	}
	if max := p.cfg.Headers.MaxLineSize; max != 0 && len(line) > int(max) {
		return p.abort(status.ErrHeaderTooLarge)
	}

	colon := bytes.IndexByte(line, ':')
	if colon <= 0 {
		return p.abort(status.ErrBadHeader)
	}

	name := line[:colon]
	for _, c := range name {
		if !tokenChars[c] {
			return p.abort(status.ErrBadHeader)
		}
	}

	value := trimPrefixSpaces(line[colon+1:])
	for _, c := range value {
		if c < ' ' || c == 0x7f {
			return p.abort(status.ErrBadHeader)
		}
	}

	name = headers.Canonicalize(name)
	// key aliases the accumulation buffer and is only valid until consume
	key := uf.B2S(name)

	switch key {
	case "Host":
		if p.hostSeen || len(value) == 0 {
			return p.abort(status.ErrBadHost)
		}
		p.hostSeen = true
		if p.onHost != nil {
			p.onHost(string(value))
		}
	case "Content-Length":
		if p.request.Chunked {
			return p.abort(status.ErrBadRequest)
		}
		length, err := strconv.ParseInt(uf.B2S(value), 10, 64)
		if err != nil || length < 0 {
			return p.abort(status.ErrBadContentLength)
		}
		p.hasContentLength = true
		p.request.ContentLength = length
	case "Transfer-Encoding":
		if !strcomp.EqualFold(uf.B2S(value), "chunked") {
			return p.abort(status.ErrUnsupportedEncoding)
		}
		if p.hasContentLength {
			return p.abort(status.ErrBadRequest)
		}
		p.request.Chunked = true
	}

	p.request.Headers.Add(string(name), string(value))
	p.request.HeaderCount = p.headerCount
	p.consume(lf + 1)

	return true
}

func (p *Parser) completeHeaders() bool {
	if !p.hostSeen {
		return p.abort(status.ErrBadHost)
	}

	p.bodyStart = time.Now()

	switch {
	case p.request.Chunked:
		p.state = eChunkedBody
	case p.hasContentLength && p.request.ContentLength > 0:
		if max := p.cfg.Body.MaxSize; max != 0 && uint64(p.request.ContentLength) > max {
			return p.abort(status.ErrBodyTooLarge)
		}
		p.state = eBody
	default:
		if len(p.buf) > 0 {
			return p.abort(status.ErrBadRequest)
		}
		p.state = eCompleted
	}

	return true
}

func (p *Parser) parseBody() bool {
	if len(p.buf) == 0 {
		return false
	}

	left := p.request.ContentLength - p.request.BodySize
	if int64(len(p.buf)) > left {
		return p.abort(status.ErrBadRequest)
	}

	if err := p.request.Body.Append(p.buf); err != nil {
		return p.abort(status.ErrInternalServerError)
	}

	p.request.BodySize += int64(len(p.buf))
	p.buf = p.buf[:0]

	if p.request.BodySize == p.request.ContentLength {
		p.state = eCompleted
	}

	return true
}

func trimPrefixSpaces(b []byte) []byte {
	for i, char := range b {
		if char != ' ' && char != '\t' {
			return b[i:]
		}
	}

	return b[:0]
}
