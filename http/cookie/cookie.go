package cookie

import (
	"strconv"
	"strings"
	"time"
)

type SameSite string

const (
	SameSiteLax    SameSite = "Lax"
	SameSiteStrict SameSite = "Strict"
	SameSiteNone   SameSite = "None"
)

// Cookie is a Set-Cookie header in struct form. Attributes left at their
// zero value are omitted from the rendered header.
type Cookie struct {
	Name   string
	Value  string
	Path   string
	Domain string

	Expires time.Time

	// MaxAge is a lifetime in seconds. Zero omits the attribute; a
	// negative value renders Max-Age=0, expiring the cookie immediately
	MaxAge int

	SameSite SameSite
	Secure   bool
	HttpOnly bool
}

// String renders the cookie as a Set-Cookie header value
func (c Cookie) String() string {
	var sb strings.Builder
	sb.WriteString(c.Name)
	sb.WriteByte('=')
	sb.WriteString(c.Value)

	if len(c.Path) > 0 {
		sb.WriteString("; Path=")
		sb.WriteString(c.Path)
	}

	if len(c.Domain) > 0 {
		sb.WriteString("; Domain=")
		sb.WriteString(c.Domain)
	}

	if !c.Expires.IsZero() {
		sb.WriteString("; Expires=")
		sb.WriteString(c.Expires.UTC().Format(time.RFC1123))
	}

	if c.MaxAge != 0 {
		maxAge := c.MaxAge
		if maxAge < 0 {
			maxAge = 0
		}

		sb.WriteString("; Max-Age=")
		sb.WriteString(strconv.Itoa(maxAge))
	}

	if len(c.SameSite) > 0 {
		sb.WriteString("; SameSite=")
		sb.WriteString(string(c.SameSite))
	}

	if c.Secure {
		sb.WriteString("; Secure")
	}

	if c.HttpOnly {
		sb.WriteString("; HttpOnly")
	}

	return sb.String()
}
