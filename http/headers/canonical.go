package headers

// Canonicalize rewrites a header name into Title-Case-Dash form in place:
// every character is lowercased, except the first one and each one
// immediately following a dash, which are uppercased. The same slice is
// returned for convenience.
func Canonicalize(key []byte) []byte {
	upper := true

	for i, c := range key {
		if upper {
			key[i] = toUpper(c)
		} else {
			key[i] = toLower(c)
		}

		upper = c == '-'
	}

	return key
}

func toUpper(c byte) byte {
	if 'a' <= c && c <= 'z' {
		return c - 'a' + 'A'
	}

	return c
}

func toLower(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c - 'A' + 'a'
	}

	return c
}
