package request

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"unicode/utf8"
)

// BaseURL is only used to resolve relative request targets. It is never sent
// anywhere.
const BaseURL = "http://0.0.0.0:8000"

var (
	ErrURLParse  = errors.New("URL parse error")
	ErrPathSplit = errors.New("URL path cannot be split into segments")
)

var baseURL = mustParse(BaseURL)

// Pair is a single query parameter. Keys may repeat.
type Pair struct {
	Key   string
	Value string
}

// Request is the framework independent form of an inbound request.
//
// Path holds the segments in reverse order: the leading segment is the last
// element, so handlers consume the path by popping from the tail. Path never
// contains empty segments.
type Request struct {
	Method Method
	Path   []string
	Query  []Pair
	Body   string
}

// Parse canonicalizes a raw request. The method is checked first so an
// unsupported method is rejected before the target is even looked at.
//
// The body is read best effort: a read error or invalid UTF-8 yields an empty
// body instead of a failure.
func Parse(method, target string, body io.Reader) (*Request, error) {
	m, err := ParseMethod(method)
	if err != nil {
		return nil, err
	}

	u, err := parseTarget(target)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrURLParse, err)
	}

	path, err := splitPath(u)
	if err != nil {
		return nil, err
	}

	return &Request{
		Method: m,
		Path:   path,
		Query:  parseQuery(u.RawQuery),
		Body:   readBody(body),
	}, nil
}

// Pop removes and returns the next logical path segment.
func (r *Request) Pop() (string, bool) {
	if len(r.Path) == 0 {
		return "", false
	}
	last := len(r.Path) - 1
	seg := r.Path[last]
	r.Path = r.Path[:last]
	return seg, true
}

// Peek returns the next logical path segment without consuming it.
func (r *Request) Peek() (string, bool) {
	if len(r.Path) == 0 {
		return "", false
	}
	return r.Path[len(r.Path)-1], true
}

// Remaining returns the unconsumed segments in logical (request) order.
func (r *Request) Remaining() []string {
	out := make([]string, len(r.Path))
	for i, seg := range r.Path {
		out[len(r.Path)-1-i] = seg
	}
	return out
}

// Get returns the first value for key.
func (r *Request) Get(key string) (string, bool) {
	for _, p := range r.Query {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Values returns every value for key in the order received.
func (r *Request) Values(key string) []string {
	var out []string
	for _, p := range r.Query {
		if p.Key == key {
			out = append(out, p.Value)
		}
	}
	return out
}

// Target rebuilds a request target from the unconsumed path and the query.
// Parsing the result yields an equal Request.
func (r *Request) Target() string {
	var b strings.Builder
	for _, seg := range r.Remaining() {
		b.WriteByte('/')
		b.WriteString(escapeSegment(seg))
	}
	if b.Len() == 0 {
		b.WriteByte('/')
	}
	for i, p := range r.Query {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

// parseTarget treats origin-form targets ("/a/b") as a path appended to
// BaseURL, so a leading "//" stays part of the path instead of naming a host.
// Anything else is resolved against BaseURL.
func parseTarget(target string) (*url.URL, error) {
	if strings.HasPrefix(target, "/") {
		return url.Parse(BaseURL + target)
	}
	return baseURL.Parse(target)
}

// escapeSegment escapes seg for a path. Dot segments are escaped too so
// they are not removed as relative references when parsed again.
func escapeSegment(seg string) string {
	switch seg {
	case ".":
		return "%2E"
	case "..":
		return "%2E%2E"
	default:
		return url.PathEscape(seg)
	}
}

func splitPath(u *url.URL) ([]string, error) {
	// Opaque URLs such as "mailto:x" have no hierarchical path.
	if u.Opaque != "" {
		return nil, fmt.Errorf("%w: %q", ErrPathSplit, u.String())
	}

	raw := strings.Split(u.EscapedPath(), "/")
	segments := make([]string, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		if raw[i] == "" {
			continue
		}
		segments = append(segments, decode(raw[i], false))
	}
	return segments, nil
}

// parseQuery follows application/x-www-form-urlencoded rules: pairs are split
// on '&', empty pieces are skipped and a piece without '=' has an empty value.
func parseQuery(raw string) []Pair {
	var pairs []Pair
	for _, piece := range strings.Split(raw, "&") {
		if piece == "" {
			continue
		}
		key, value, _ := strings.Cut(piece, "=")
		pairs = append(pairs, Pair{Key: decode(key, true), Value: decode(value, true)})
	}
	return pairs
}

// decode percent-decodes s, leaving malformed escapes as they are. Invalid
// UTF-8 is replaced rather than rejected.
func decode(s string, plusAsSpace bool) string {
	if !strings.ContainsAny(s, "%+") {
		return s
	}

	buf := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '+' && plusAsSpace:
			buf = append(buf, ' ')
		case c == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]):
			buf = append(buf, unhex(s[i+1])<<4|unhex(s[i+2]))
			i += 2
		default:
			buf = append(buf, c)
		}
	}
	return strings.ToValidUTF8(string(buf), "\uFFFD")
}

func readBody(body io.Reader) string {
	if body == nil {
		return ""
	}
	data, err := io.ReadAll(body)
	if err != nil || !utf8.Valid(data) {
		return ""
	}
	return string(data)
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

func mustParse(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}
