package proto

import "github.com/indigo-web/utils/uf"

type Proto uint8

const (
	Unknown Proto = iota
	HTTP11
)

// String returns the protocol token as it appears on the wire
func (p Proto) String() string {
	if p == HTTP11 {
		return "HTTP/1.1"
	}

	return ""
}

const (
	protoTokenLength   = len("HTTP/x.x")
	majorVersionOffset = len("HTTP/x") - 1
	minorVersionOffset = len("HTTP/x.x") - 1
	httpScheme         = "HTTP/"
)

// FromBytes recognizes the protocol token of a request line. Only HTTP/1.1
// is a known protocol; every other well-formed token parses to Unknown
func FromBytes(raw []byte) Proto {
	if len(raw) != protoTokenLength ||
		uf.B2S(raw[:majorVersionOffset]) != httpScheme ||
		raw[majorVersionOffset+1] != '.' {
		return Unknown
	}

	return Parse(raw[majorVersionOffset]-'0', raw[minorVersionOffset]-'0')
}

func Parse(major, minor uint8) Proto {
	if major == 1 && minor == 1 {
		return HTTP11
	}

	return Unknown
}
