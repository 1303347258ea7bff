package http1

import (
	"bytes"

	"github.com/hearth-web/hearth/http/status"
)

// longest admissible chunk-size token: 15 hex digits stay within int64
const maxChunkSizeDigits = 15

// parseChunkedBody alternates between two phases tracked by hasChunkSize.
// Without a size it expects a `size-hex [;ext] CRLF` line; with one it
// waits for chunkSize+2 buffered bytes, verifies the trailing CRLF and
// appends the payload to the body. A zero-sized chunk terminates the body;
// anything buffered past its final CRLF is a framing violation, since
// requests are never pipelined across parser runs
func (p *Parser) parseChunkedBody() bool {
	if !p.hasChunkSize {
		return p.parseChunkSizeLine()
	}

	if p.chunkSize == 0 {
		if len(p.buf) < 2 {
			return false
		}
		if p.buf[0] != '\r' || p.buf[1] != '\n' {
			return p.abort(status.ErrBadChunk)
		}

		p.consume(2)
		if len(p.buf) > 0 {
			return p.abort(status.ErrBadChunk)
		}

		p.state = eCompleted
		return true
	}

	if int64(len(p.buf)) < p.chunkSize+2 {
		return false
	}
	if p.buf[p.chunkSize] != '\r' || p.buf[p.chunkSize+1] != '\n' {
		return p.abort(status.ErrBadChunk)
	}

	if err := p.request.Body.Append(p.buf[:p.chunkSize]); err != nil {
		return p.abort(status.ErrInternalServerError)
	}

	p.request.BodySize += p.chunkSize
	p.consume(int(p.chunkSize) + 2)
	p.hasChunkSize = false

	return true
}

func (p *Parser) parseChunkSizeLine() bool {
	lf := bytes.IndexByte(p.buf, '\n')
	if lf < 0 {
		return false
	}

	if lf == 0 || p.buf[lf-1] != '\r' {
		return p.abort(status.ErrBadChunk)
	}

	line := p.buf[:lf-1]

	// chunk extensions are tolerated and dropped
	if semi := bytes.IndexByte(line, ';'); semi >= 0 {
		line = line[:semi]
	}

	if len(line) == 0 || len(line) > maxChunkSizeDigits {
		return p.abort(status.ErrBadChunk)
	}

	var size int64
	for _, c := range line {
		v := unhex[c]
		if v == badHex {
			return p.abort(status.ErrBadChunk)
		}

		size = size<<4 | int64(v)
	}

	if max := p.cfg.Body.MaxSize; max != 0 && uint64(p.request.BodySize)+uint64(size) > max {
		return p.abort(status.ErrBodyTooLarge)
	}

	p.chunkSize = size
	p.hasChunkSize = true
	p.consume(lf + 1)

	return true
}
