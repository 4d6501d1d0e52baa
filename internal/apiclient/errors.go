package apiclient

import (
	"errors"
	"strings"
)

// Kind classifies a remote failure.
type Kind int

const (
	// KindValidation carries the server's 400 validation messages verbatim.
	KindValidation Kind = iota + 1
	// KindUnauthorized covers 401 and 403 regardless of body content.
	KindUnauthorized
	// KindNotFound covers 404.
	KindNotFound
	// KindInternal covers every other non-success response and malformed
	// payloads.
	KindInternal
)

// Messages matching the production wire contract.
const (
	msgUnauthorized = "Unauthorized!"
	msgNotFound     = "Not found!"
	msgInternal     = "Internal server error!"
)

// ErrorList is the uniform failure shape returned by the remote system: an
// ordered list of human-readable messages. Transport failures are not
// wrapped in it; they propagate as plain errors.
type ErrorList struct {
	Kind     Kind
	Messages []string
}

func (e *ErrorList) Error() string {
	return strings.Join(e.Messages, "; ")
}

// First returns the leading message, the one surfaced to the user when
// several are returned.
func (e *ErrorList) First() string {
	if len(e.Messages) == 0 {
		return ""
	}
	return e.Messages[0]
}

func unauthorizedError() *ErrorList {
	return &ErrorList{Kind: KindUnauthorized, Messages: []string{msgUnauthorized}}
}

func notFoundError() *ErrorList {
	return &ErrorList{Kind: KindNotFound, Messages: []string{msgNotFound}}
}

func internalError() *ErrorList {
	return &ErrorList{Kind: KindInternal, Messages: []string{msgInternal}}
}

// AsErrorList extracts the remote failure shape from an error, if present.
func AsErrorList(err error) (*ErrorList, bool) {
	var list *ErrorList
	if errors.As(err, &list) {
		return list, true
	}
	return nil, false
}
