package generation

import "errors"

type ErrorKind string

const (
	ErrorKindEmptyInput          ErrorKind = "empty_input"
	ErrorKindMalformedResponse   ErrorKind = "malformed_structured_response"
	ErrorKindTransport           ErrorKind = "transport_failure"
	ErrorKindUnsupportedDocument ErrorKind = "unsupported_document_format"
)

var (
	ErrEmptyInput          = errors.New("empty input")
	ErrMalformedResponse   = errors.New("malformed structured response")
	ErrTransport           = errors.New("model transport failure")
	ErrUnsupportedDocument = errors.New("unsupported document format")
)

// KindOf maps an error to its ErrorKind, or "" when the error is not one of
// the generation errors.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyInput):
		return ErrorKindEmptyInput
	case errors.Is(err, ErrMalformedResponse):
		return ErrorKindMalformedResponse
	case errors.Is(err, ErrTransport):
		return ErrorKindTransport
	case errors.Is(err, ErrUnsupportedDocument):
		return ErrorKindUnsupportedDocument
	default:
		return ""
	}
}
