package http

import (
	"errors"
	"io"
	"strconv"

	"github.com/hearth-web/hearth/http"
	"github.com/hearth-web/hearth/internal/evloop"
	"github.com/hearth-web/hearth/internal/spill"
)

// streamReadQuantum is how many body bytes the serializer requests from a
// spillable stream per round
const streamReadQuantum = 32 * 1024

var errStreamStalled = errors.New("response stream made no progress")

// Serializer turns a response into wire bytes. Literal bodies go out in a
// single write; spillable streams are pumped through the readiness
// dispatcher round by round, framed as chunked encoding or, when chunked is
// disabled, raw with a Content-Length header derived from the stream size
type Serializer struct {
	loop *evloop.Dispatcher
}

func NewSerializer(loop *evloop.Dispatcher) *Serializer {
	return &Serializer{loop: loop}
}

func (s *Serializer) Write(conn io.Writer, resp *http.Response) error {
	stream := resp.Stream()
	if stream == nil {
		_, err := conn.Write(resp.Render())
		return err
	}

	if !resp.Chunked() {
		resp.SetHeader("Content-Length", strconv.FormatInt(stream.Size(), 10))
	}

	if _, err := conn.Write(resp.RenderHeader()); err != nil {
		return err
	}

	if err := s.writeStream(conn, stream, resp.Chunked()); err != nil {
		return err
	}

	if resp.Chunked() {
		_, err := conn.Write([]byte("0\r\n\r\n"))
		return err
	}

	return nil
}

func (s *Serializer) writeStream(conn io.Writer, stream *spill.Buffer, chunked bool) error {
	var sent int64
	total := stream.Size()

	for sent < total {
		if len(stream.ReadBuffer()) == 0 {
			left := total - sent
			quantum := streamReadQuantum
			if int64(quantum) > left {
				quantum = int(left)
			}

			stream.Read(quantum)
			s.loop.DispatchAll(evloop.Readable)
		}

		chunk := stream.ReadBuffer()
		if len(chunk) == 0 {
			if stream.Terminated() {
				return io.ErrUnexpectedEOF
			}

			return errStreamStalled
		}

		if chunked {
			if err := writeChunk(conn, chunk); err != nil {
				return err
			}
		} else if _, err := conn.Write(chunk); err != nil {
			return err
		}

		sent += int64(len(chunk))
		stream.ConsumeRead(len(chunk))
	}

	return nil
}

// writeChunk emits a single chunked-encoding frame:
// size-hex CRLF payload CRLF
func writeChunk(conn io.Writer, chunk []byte) error {
	head := strconv.AppendUint(nil, uint64(len(chunk)), 16)
	head = append(head, '\r', '\n')

	if _, err := conn.Write(head); err != nil {
		return err
	}
	if _, err := conn.Write(chunk); err != nil {
		return err
	}

	_, err := conn.Write([]byte("\r\n"))
	return err
}
