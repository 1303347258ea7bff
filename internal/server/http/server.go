package http

import (
	"log/slog"
	"net"
	"time"

	"github.com/hearth-web/hearth/http"
	"github.com/hearth-web/hearth/http/headers"
	"github.com/hearth-web/hearth/http/status"
	"github.com/hearth-web/hearth/internal/evloop"
	httpparser "github.com/hearth-web/hearth/internal/parser"
	"github.com/hearth-web/hearth/internal/parser/http1"
	"github.com/hearth-web/hearth/internal/spill"
	"github.com/hearth-web/hearth/settings"
)

const preAllocHeaders = 16

// Handler is the layer the server hands completed requests to. Routing,
// static dispatch and everything above live behind it
type Handler interface {
	Handle(request *http.Request) *http.Response
}

type HandlerFunc func(request *http.Request) *http.Response

func (f HandlerFunc) Handle(request *http.Request) *http.Response {
	return f(request)
}

// Server drives every connection handed to Serve through the
// parse→handle→serialize cycle, keeping the connection alive between
// requests until an error or a peer disconnect. Each Serve call owns one
// connection; calls for different connections may run concurrently
type Server struct {
	cfg     settings.Settings
	handler Handler
	pool    *spill.Pool
	logger  *slog.Logger
	onHost  func(host string)
}

func NewServer(cfg settings.Settings, handler Handler, pool *spill.Pool, logger *slog.Logger) *Server {
	return &Server{
		cfg:     cfg,
		handler: handler,
		pool:    pool,
		logger:  logger,
	}
}

// OnHost forwards the parser's first-Host notification, letting a
// virtual-host layer pick a server while the request is still being parsed
func (s *Server) OnHost(cb func(host string)) {
	s.onHost = cb
}

func (s *Server) Serve(conn net.Conn) {
	defer conn.Close()

	loop := evloop.NewDispatcher()
	serializer := NewSerializer(loop)

	request := http.NewRequest(
		loop,
		headers.NewPreAlloc(preAllocHeaders),
		spill.New(loop, s.pool, s.cfg.Spill.Threshold),
	)
	defer func() {
		_ = request.Body.Close()
	}()

	p := http1.New(request, s.cfg)
	if s.onHost != nil {
		p.OnHost(s.onHost)
	}
	var parser httpparser.Parser = p

	buf := make([]byte, s.cfg.TCP.ReadBufferSize)

	for {
		if t := s.cfg.TCP.ReadTimeout; t > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(t))
		}

		n, err := conn.Read(buf)
		if err != nil {
			return
		}

		done, parseErr := parser.Parse(buf[:n])
		drain(loop, request.Body)

		if parseErr != nil {
			code := status.CodeOf(parseErr)
			_ = serializer.Write(conn, http.Html(code, parseErr.Error()))
			s.logger.Debug("request rejected",
				"remote", conn.RemoteAddr().String(),
				"status", int(code),
				"reason", parseErr.Error(),
			)

			return
		}

		if !done {
			continue
		}

		response := s.handler.Handle(request)
		if response == nil {
			response = http.Html(status.InternalServerError, "empty response")
		}

		if err = serializer.Write(conn, response); err != nil {
			s.logger.Debug("response write failed",
				"remote", conn.RemoteAddr().String(),
				"err", err,
			)

			return
		}

		// the driver is the last owner of both bodies at this point
		if stream := response.Stream(); stream != nil {
			_ = stream.Close()
		}
		_ = request.Body.Close()

		request.Reset(spill.New(loop, s.pool, s.cfg.Spill.Threshold))
		parser.Reset(request)
	}
}

// drain pumps writable readiness until the request body has no queued
// spill writes left. Bails out if a round makes no progress, leaving the
// terminated buffer to its owner
func drain(loop *evloop.Dispatcher, body *spill.Buffer) {
	for body.PendingWrite() > 0 && !body.Terminated() {
		before := body.PendingWrite()
		loop.DispatchAll(evloop.Writable)

		if body.PendingWrite() == before {
			return
		}
	}
}
