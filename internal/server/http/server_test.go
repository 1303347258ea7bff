package http

import (
	"bufio"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hearth-web/hearth/http"
	"github.com/hearth-web/hearth/internal/evloop"
	"github.com/hearth-web/hearth/internal/spill"
	"github.com/hearth-web/hearth/settings"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// echoHandler replies with the request URI and the full body
func echoHandler(request *http.Request) *http.Response {
	var body []byte

	for int64(len(body)) < request.Body.Size() {
		request.Body.Read(int(request.Body.Size()) - len(body))
		request.Loop.DispatchAll(evloop.Readable)

		chunk := request.Body.ReadBuffer()
		if len(chunk) == 0 {
			break
		}

		body = append(body, chunk...)
		request.Body.ConsumeRead(len(chunk))
	}

	return http.NewResponse().
		SetHeader("X-Uri", request.URI).
		SetBody(body)
}

func startServer(t *testing.T, cfg settings.Settings) net.Conn {
	client, server := net.Pipe()
	t.Cleanup(func() {
		_ = client.Close()
	})

	pool := spill.NewPool(t.TempDir())
	srv := NewServer(cfg, HandlerFunc(echoHandler), pool, discardLogger())
	go srv.Serve(server)

	return client
}

func readResponse(t *testing.T, r *bufio.Reader) (statusLine string, headers map[string]string, body string) {
	statusLine, err := r.ReadString('\n')
	require.NoError(t, err)
	statusLine = strings.TrimSuffix(statusLine, "\r\n")

	headers = map[string]string{}
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)

		line = strings.TrimSuffix(line, "\r\n")
		if len(line) == 0 {
			break
		}

		key, value, found := strings.Cut(line, ": ")
		require.True(t, found)
		headers[key] = value
	}

	length, err := strconv.Atoi(headers["Content-Length"])
	require.NoError(t, err)

	raw := make([]byte, length)
	_, err = io.ReadFull(r, raw)
	require.NoError(t, err)

	return statusLine, headers, string(raw)
}

func TestServe_EchoRoundTrip(t *testing.T) {
	cfg := settings.Default()
	cfg.TCP.ReadTimeout = 0

	client := startServer(t, cfg)
	reader := bufio.NewReader(client)

	_, err := client.Write([]byte(
		"POST /echo HTTP/1.1\r\nHost: localhost\r\nContent-Length: 5\r\n\r\nhello",
	))
	require.NoError(t, err)

	statusLine, headers, body := readResponse(t, reader)
	require.Equal(t, "HTTP/1.1 200 OK", statusLine)
	require.Equal(t, "/echo", headers["X-Uri"])
	require.Equal(t, "hello", body)
}

func TestServe_KeepAlive(t *testing.T) {
	cfg := settings.Default()
	cfg.TCP.ReadTimeout = 0

	client := startServer(t, cfg)
	reader := bufio.NewReader(client)

	for i, request := range []string{
		"POST /first HTTP/1.1\r\nHost: localhost\r\nContent-Length: 3\r\n\r\none",
		"POST /second HTTP/1.1\r\nHost: localhost\r\nContent-Length: 3\r\n\r\ntwo",
	} {
		_, err := client.Write([]byte(request))
		require.NoError(t, err)

		statusLine, headers, body := readResponse(t, reader)
		require.Equal(t, "HTTP/1.1 200 OK", statusLine)

		if i == 0 {
			require.Equal(t, "/first", headers["X-Uri"])
			require.Equal(t, "one", body)
		} else {
			require.Equal(t, "/second", headers["X-Uri"])
			require.Equal(t, "two", body)
		}
	}
}

func TestServe_ParseErrorReply(t *testing.T) {
	cfg := settings.Default()
	cfg.TCP.ReadTimeout = 0

	client := startServer(t, cfg)
	reader := bufio.NewReader(client)

	_, err := client.Write([]byte("DESTROY / HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)

	statusLine, headers, body := readResponse(t, reader)
	require.Equal(t, "HTTP/1.1 400 Bad Request", statusLine)
	require.Equal(t, "text/html", headers["Content-Type"])
	require.Contains(t, body, "request method is not recognized")

	// the connection is closed after a rejected request
	_, err = reader.ReadByte()
	require.ErrorIs(t, err, io.EOF)
}

func TestServe_OnHost(t *testing.T) {
	cfg := settings.Default()
	cfg.TCP.ReadTimeout = 0

	client, server := net.Pipe()
	t.Cleanup(func() {
		_ = client.Close()
	})

	hosts := make(chan string, 1)
	pool := spill.NewPool(t.TempDir())
	srv := NewServer(cfg, HandlerFunc(echoHandler), pool, discardLogger())
	srv.OnHost(func(host string) {
		hosts <- host
	})
	go srv.Serve(server)

	_, err := client.Write([]byte("GET / HTTP/1.1\r\nHost: files.example.com\r\n\r\n"))
	require.NoError(t, err)

	readResponse(t, bufio.NewReader(client))
	require.Equal(t, "files.example.com", <-hosts)
}
