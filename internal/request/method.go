package request

import (
	"errors"
	"fmt"
)

// Method is one of the HTTP methods the service routes. OPTIONS never gets
// this far; it is answered before canonicalization.
type Method int

const (
	MethodGet Method = iota + 1
	MethodPost
	MethodDelete
)

// ErrUnsupportedMethod is returned for any method token other than GET, POST
// and DELETE.
var ErrUnsupportedMethod = errors.New("unsupported method")

// ParseMethod maps a raw method token onto a Method. Matching is exact and
// case sensitive, as HTTP method tokens are.
func ParseMethod(token string) (Method, error) {
	switch token {
	case "GET":
		return MethodGet, nil
	case "POST":
		return MethodPost, nil
	case "DELETE":
		return MethodDelete, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedMethod, token)
	}
}

func (m Method) String() string {
	switch m {
	case MethodGet:
		return "GET"
	case MethodPost:
		return "POST"
	case MethodDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}
