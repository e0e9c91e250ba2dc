package server

import (
	"errors"
	"fmt"

	"github.com/bastiangx/tokenserve/pkg/engine"
)

// ErrorKind names the pipeline stage a request failed in.
type ErrorKind int

const (
	Utf8DecodeError ErrorKind = iota
	TokenizeError
	DetailLookupError
	FormatError
)

func (k ErrorKind) String() string {
	switch k {
	case Utf8DecodeError:
		return "utf8 decode"
	case TokenizeError:
		return "tokenize"
	case DetailLookupError:
		return "detail lookup"
	case FormatError:
		return "format"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// RequestError is a failure confined to one request.
type RequestError struct {
	Kind ErrorKind
	Err  error
}

func (e *RequestError) Error() string {
	return e.Err.Error()
}

func (e *RequestError) Unwrap() error { return e.Err }

// classify wraps an error coming out of the engine with the matching kind.
// Errors the engine did not mark are treated as tokenize failures.
func classify(err error) *RequestError {
	var rerr *RequestError
	if errors.As(err, &rerr) {
		return rerr
	}
	switch {
	case errors.Is(err, engine.ErrDetailLookup):
		return &RequestError{Kind: DetailLookupError, Err: err}
	case errors.Is(err, engine.ErrFormat):
		return &RequestError{Kind: FormatError, Err: err}
	}
	return &RequestError{Kind: TokenizeError, Err: err}
}

// mapError turns any failure into the uniform error body.
func mapError(err error) ErrorResponse {
	if err == nil {
		return ErrorResponse{Error: "unknown error"}
	}
	return ErrorResponse{Error: err.Error()}
}
