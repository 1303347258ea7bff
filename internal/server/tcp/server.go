package tcp

import (
	"net"
	"sync"

	"github.com/hearth-web/hearth/http/status"
)

// Server owns the accept loop. Each accepted connection runs the handler
// in its own goroutine; the set of live connections is owned by a single
// tracking goroutine, so teardown never contends with handlers on a lock.
type Server struct {
	sock    net.Listener
	handle  func(net.Conn)
	opened  chan net.Conn
	parted  chan net.Conn
	abort   chan chan struct{}
	closing chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func NewServer(sock net.Listener, handle func(net.Conn)) *Server {
	return &Server{
		sock:    sock,
		handle:  handle,
		opened:  make(chan net.Conn),
		parted:  make(chan net.Conn),
		abort:   make(chan chan struct{}),
		closing: make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start accepts until the listener is closed, then waits for every
// connection handler to return. status.ErrShutdown reports an ordered
// stop; anything else is the listener's own error
func (s *Server) Start() error {
	defer close(s.stopped)
	go s.track()

	var wg sync.WaitGroup

	for {
		conn, err := s.sock.Accept()
		if err != nil {
			wg.Wait()

			select {
			case <-s.closing:
				return status.ErrShutdown
			default:
				return err
			}
		}

		s.opened <- conn
		wg.Add(1)

		go func() {
			defer wg.Done()

			s.handle(conn)
			s.parted <- conn
		}()
	}
}

func (s *Server) track() {
	live := make(map[net.Conn]struct{})

	for {
		select {
		case conn := <-s.opened:
			live[conn] = struct{}{}
		case conn := <-s.parted:
			delete(live, conn)
		case ack := <-s.abort:
			for conn := range live {
				_ = conn.Close()
			}

			close(ack)
		case <-s.stopped:
			return
		}
	}
}

// Stop closes the listener and tears down every live connection
func (s *Server) Stop() error {
	err := s.GracefulShutdown()

	ack := make(chan struct{})
	select {
	case s.abort <- ack:
		<-ack
	case <-s.stopped:
		// the accept loop already drained on its own
	}

	return err
}

// GracefulShutdown closes the listener only; open connections run to
// completion
func (s *Server) GracefulShutdown() error {
	s.once.Do(func() {
		close(s.closing)
	})

	return s.sock.Close()
}
