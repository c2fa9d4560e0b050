// Package routepath normalizes request paths before route matching.
package routepath

import (
	"errors"
	"net/url"
	"strings"
	"unicode/utf8"
)

// Result is a canonicalized request path.
type Result struct {
	// Path is the canonical path, always rooted and without a trailing
	// slash unless it is "/".
	Path string

	// Query is the raw query string without the leading "?".
	Query string

	// Changed reports whether Path differs from the input path.
	Changed bool
}

// Canonicalization errors.
var (
	ErrBackslashInPath       = errors.New("path contains backslash")
	ErrNullByteInPath        = errors.New("path contains null byte")
	ErrInvalidPercentEscape  = errors.New("invalid percent escape sequence")
	ErrPathEscapesRoot       = errors.New("path escapes root via ..")
	ErrEncodedSlashInSegment = errors.New("encoded slash (%2F) in single-segment parameter")
	ErrEncodedDotSegment     = errors.New("encoded dot segment in parameter")
	ErrInvalidUTF8           = errors.New("path is not valid UTF-8 after decoding")
	ErrOutsideBase           = errors.New("path is outside the base path")
)

// Canonicalize normalizes a request path for matching:
//   - a missing leading slash is added
//   - repeated slashes collapse (/blog//post → /blog/post)
//   - "." segments are dropped and ".." segments are resolved, including
//     their percent-encoded forms (%2e, %2E%2e)
//   - the trailing slash is removed, except for "/"
//
// Backslashes, NUL bytes (literal or %00), malformed percent escapes,
// escapes that decode to invalid UTF-8 and ".." above the root are
// rejected. A query string is split off and kept
// verbatim.
func Canonicalize(input string) (Result, error) {
	if input == "" {
		return Result{Path: "/", Changed: true}, nil
	}

	path, query, _ := strings.Cut(input, "?")
	path, _, _ = strings.Cut(path, "#")

	if strings.Contains(path, "\\") {
		return Result{}, ErrBackslashInPath
	}
	if strings.Contains(path, "\x00") || strings.Contains(strings.ToUpper(path), "%00") {
		return Result{}, ErrNullByteInPath
	}
	if strings.Contains(path, "%") {
		if err := validatePercentEscapes(path); err != nil {
			return Result{}, err
		}
		if decoded, err := url.PathUnescape(path); err != nil || !utf8.ValidString(decoded) {
			return Result{}, ErrInvalidUTF8
		}
	}

	original := path

	var segments []string
	for _, seg := range strings.Split(path, "/") {
		switch dotSegment(seg) {
		case "", ".":
			continue
		case "..":
			if len(segments) == 0 {
				return Result{}, ErrPathEscapesRoot
			}
			segments = segments[:len(segments)-1]
		default:
			segments = append(segments, seg)
		}
	}

	path = "/" + strings.Join(segments, "/")

	return Result{
		Path:    path,
		Query:   query,
		Changed: path != original,
	}, nil
}

// dotSegment returns seg, or "." / ".." when seg is an escaped form of
// one of them.
func dotSegment(seg string) string {
	if !strings.Contains(seg, "%") || len(seg) > 6 {
		return seg
	}
	if d, err := url.PathUnescape(seg); err == nil && (d == "." || d == "..") {
		return d
	}
	return seg
}

// validatePercentEscapes checks that every "%" starts a %XX hex escape.
func validatePercentEscapes(path string) error {
	for i := 0; i < len(path); i++ {
		if path[i] != '%' {
			continue
		}
		if i+2 >= len(path) || !isHexDigit(path[i+1]) || !isHexDigit(path[i+2]) {
			return ErrInvalidPercentEscape
		}
		i += 2
	}
	return nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// Split returns the raw (still escaped) segments of a canonical path.
// The root path has no segments.
func Split(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// DecodeSegment percent-decodes one path segment. Unless multiSegment is
// set, a decoded "/" is rejected: %2F must not smuggle a separator into a
// parameter that matches a single segment. When it is set, the pieces
// between decoded slashes must not be dot segments. Invalid UTF-8 is
// always rejected.
func DecodeSegment(segment string, multiSegment bool) (string, error) {
	decoded, err := url.PathUnescape(segment)
	if err != nil {
		return "", ErrInvalidPercentEscape
	}
	if !utf8.ValidString(decoded) {
		return "", ErrInvalidUTF8
	}
	if !strings.Contains(decoded, "/") {
		return decoded, nil
	}
	if !multiSegment {
		return "", ErrEncodedSlashInSegment
	}
	for _, part := range strings.Split(decoded, "/") {
		if part == "." || part == ".." {
			return "", ErrEncodedDotSegment
		}
	}
	return decoded, nil
}

// StripBase removes a base path prefix such as "/docs" from a canonical
// path. An empty or "/" base is a no-op. The second result is false when
// path does not live under base.
func StripBase(path, base string) (string, bool) {
	base = strings.TrimSuffix(base, "/")
	if base == "" {
		return path, true
	}
	if !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	if path == base {
		return "/", true
	}
	rest, ok := strings.CutPrefix(path, base)
	if !ok || !strings.HasPrefix(rest, "/") {
		return "", false
	}
	return rest, true
}
