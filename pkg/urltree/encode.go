package urltree

import (
	"errors"
	"net/url"
	"strings"
)

// ErrInvalidPercentEscape is returned when a URL token holds a malformed
// percent-escape such as %GG or a truncated %2.
var ErrInvalidPercentEscape = errors.New("urltree: invalid percent escape sequence")

const upperHex = "0123456789ABCDEF"

// isUnreserved matches the characters component encoding leaves alone:
// A-Z a-z 0-9 - _ . ! ~ * ' ( )
func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}

// escape percent-encodes every byte of s for which keep returns false.
func escape(s string, keep func(c byte) bool) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if !keep(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if keep(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperHex[c>>4])
		b.WriteByte(upperHex[c&15])
	}
	return b.String()
}

// keepString is the restricted table shared by paths and queries: component
// encoding, but @ : $ and , stay readable.
func keepString(c byte) bool {
	switch c {
	case '@', ':', '$', ',':
		return true
	}
	return isUnreserved(c)
}

// EncodeString encodes s with the restricted table.
func EncodeString(s string) string {
	return escape(s, keepString)
}

// EncodeQuery encodes a query key or value. Semicolons are kept as well.
func EncodeQuery(s string) string {
	return escape(s, func(c byte) bool {
		return c == ';' || keepString(c)
	})
}

// EncodeSegment encodes a path segment or matrix parameter. Parentheses are
// escaped because they delimit outlet groups; & is left alone.
func EncodeSegment(s string) string {
	return escape(s, func(c byte) bool {
		switch c {
		case '(', ')':
			return false
		case '&':
			return true
		}
		return keepString(c)
	})
}

// EncodeFragment encodes a fragment with full-URI rules, which leave the
// URI delimiters untouched.
func EncodeFragment(s string) string {
	return escape(s, func(c byte) bool {
		switch c {
		case ';', ',', '/', '?', ':', '@', '&', '=', '+', '$', '#':
			return true
		}
		return isUnreserved(c)
	})
}

// Decode percent-decodes a path token. '+' is left as is.
func Decode(s string) (string, error) {
	if err := validatePercentEscapes(s); err != nil {
		return "", err
	}
	out, err := url.PathUnescape(s)
	if err != nil {
		return "", ErrInvalidPercentEscape
	}
	return out, nil
}

// DecodeQuery percent-decodes a query token; '+' decodes to a space.
func DecodeQuery(s string) (string, error) {
	if err := validatePercentEscapes(s); err != nil {
		return "", err
	}
	out, err := url.QueryUnescape(s)
	if err != nil {
		return "", ErrInvalidPercentEscape
	}
	return out, nil
}

// validatePercentEscapes checks that every % is followed by two hex digits.
func validatePercentEscapes(s string) error {
	if !strings.Contains(s, "%") {
		return nil
	}
	for i := 0; i < len(s); {
		if s[i] != '%' {
			i++
			continue
		}
		if i+2 >= len(s) || !isHexDigit(s[i+1]) || !isHexDigit(s[i+2]) {
			return ErrInvalidPercentEscape
		}
		i += 3
	}
	return nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
