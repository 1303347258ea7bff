package http

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hearth-web/hearth/http/cookie"
	"github.com/hearth-web/hearth/http/headers"
	"github.com/hearth-web/hearth/http/status"
	"github.com/hearth-web/hearth/internal/evloop"
	"github.com/hearth-web/hearth/internal/spill"
)

func TestResponse_RenderHeader(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		rendered := string(NewResponse().RenderHeader())
		require.True(t, strings.HasPrefix(rendered, "HTTP/1.1 200 OK\r\n"))
		require.True(t, strings.HasSuffix(rendered, "\r\n\r\n"))
	})

	t.Run("literal body derives content-length", func(t *testing.T) {
		resp := NewResponse().SetBody([]byte("Hello, World!"))

		rendered := string(resp.Render())
		require.Contains(t, rendered, "Content-Length: 13\r\n")
		require.NotContains(t, rendered, "Transfer-Encoding")
		require.True(t, strings.HasSuffix(rendered, "\r\n\r\nHello, World!"))
	})

	t.Run("empty body still gets content-length", func(t *testing.T) {
		rendered := string(NewResponse().DisableChunked().RenderHeader())
		require.Contains(t, rendered, "Content-Length: 0\r\n")
	})

	t.Run("custom status message", func(t *testing.T) {
		resp := NewResponse().SetStatusMessage(status.Teapot, "out of coffee")
		require.True(t, strings.HasPrefix(
			string(resp.RenderHeader()), "HTTP/1.1 418 out of coffee\r\n",
		))
	})

	t.Run("unknown code falls back", func(t *testing.T) {
		resp := NewResponse().SetStatus(status.Code(599))
		require.True(t, strings.HasPrefix(
			string(resp.RenderHeader()), "HTTP/1.1 599 Unknown\r\n",
		))
	})

	t.Run("set replaces previous values", func(t *testing.T) {
		resp := NewResponse().
			SetHeader("Content-Type", "text/plain").
			SetHeader("Content-Type", "application/json")

		rendered := string(resp.RenderHeader())
		require.NotContains(t, rendered, "text/plain")
		require.Contains(t, rendered, "Content-Type: application/json\r\n")
	})
}

func TestResponse_StreamFraming(t *testing.T) {
	newStream := func(t *testing.T, payload string) *spill.Buffer {
		loop := evloop.NewDispatcher()
		stream := spill.New(loop, spill.NewPool(t.TempDir()), 1<<20)
		require.NoError(t, stream.Append([]byte(payload)))
		return stream
	}

	t.Run("chunked by default", func(t *testing.T) {
		resp := NewResponse().EnableChunked(newStream(t, "payload"))

		rendered := string(resp.RenderHeader())
		require.Contains(t, rendered, "Transfer-Encoding: chunked\r\n")
		require.NotContains(t, rendered, "Content-Length")
	})

	t.Run("enabling chunked drops content-length", func(t *testing.T) {
		resp := NewResponse().SetHeader("Content-Length", "7")
		resp.EnableChunked(newStream(t, "payload"))

		rendered := string(resp.RenderHeader())
		require.NotContains(t, rendered, "Content-Length")
	})

	t.Run("attaching a stream detaches the literal body", func(t *testing.T) {
		resp := NewResponse().SetBody([]byte("literal"))
		resp.EnableChunked(newStream(t, "stream"))
		require.Nil(t, resp.Body())
		require.NotNil(t, resp.Stream())
	})

	t.Run("attaching a body detaches the stream", func(t *testing.T) {
		resp := NewResponse().EnableChunked(newStream(t, "stream"))
		resp.SetBody([]byte("literal"))
		require.Nil(t, resp.Stream())
	})
}

func TestResponse_SetCookie(t *testing.T) {
	resp := NewResponse().
		AddSetCookie(cookie.Cookie{Name: "sessionId", Value: "deadbeef", Path: "/", HttpOnly: true}).
		AddSetCookie(cookie.Cookie{Name: "theme", Value: "dark"})

	rendered := string(resp.RenderHeader())
	first := strings.Index(rendered, "Set-Cookie: sessionId=deadbeef; Path=/; HttpOnly\r\n")
	second := strings.Index(rendered, "Set-Cookie: theme=dark\r\n")

	require.GreaterOrEqual(t, first, 0)
	require.Greater(t, second, first)
}

func TestResponse_JSON(t *testing.T) {
	resp := NewResponse()
	require.NoError(t, resp.JSON(map[string]int{"answer": 42}))

	rendered := string(resp.Render())
	require.Contains(t, rendered, "Content-Type: application/json\r\n")
	require.True(t, strings.HasSuffix(rendered, `{"answer":42}`))
}

func TestHtml(t *testing.T) {
	t.Run("status page", func(t *testing.T) {
		rendered := string(Html(status.BadRequest, "bad request").Render())
		require.True(t, strings.HasPrefix(rendered, "HTTP/1.1 400 Bad Request\r\n"))
		require.Contains(t, rendered, "Content-Type: text/html\r\n")
		require.Contains(t, rendered, "<p>bad request</p>")
	})

	t.Run("dedicated 404 page", func(t *testing.T) {
		rendered := string(Html(status.NotFound, "ignored").Render())
		require.Contains(t, rendered, "The requested resource was not found")
		require.NotContains(t, rendered, "ignored")
	})
}

func TestRequest_Cookie(t *testing.T) {
	loop := evloop.NewDispatcher()
	request := NewRequest(loop, headers.New(), nil)

	require.Empty(t, request.Cookie())

	request.Headers.Add("Cookie", "sessionId=abc")
	require.Equal(t, "sessionId=abc", request.Cookie())
}

func TestCookie_String(t *testing.T) {
	t.Run("bare", func(t *testing.T) {
		require.Equal(t, "k=v", cookie.Cookie{Name: "k", Value: "v"}.String())
	})

	t.Run("all attributes", func(t *testing.T) {
		c := cookie.Cookie{
			Name:     "k",
			Value:    "v",
			Path:     "/files",
			Domain:   "example.com",
			Expires:  time.Date(2027, time.January, 2, 15, 4, 5, 0, time.UTC),
			MaxAge:   3600,
			SameSite: cookie.SameSiteStrict,
			Secure:   true,
			HttpOnly: true,
		}

		require.Equal(
			t,
			"k=v; Path=/files; Domain=example.com; Expires=Sat, 02 Jan 2027 15:04:05 UTC"+
				"; Max-Age=3600; SameSite=Strict; Secure; HttpOnly",
			c.String(),
		)
	})

	t.Run("negative max-age renders zero", func(t *testing.T) {
		c := cookie.Cookie{Name: "k", Value: "v", MaxAge: -1}
		require.Equal(t, "k=v; Max-Age=0", c.String())
	})
}
