package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeNetwork           Code = "NETWORK_UNAVAILABLE"
	CodeAuthRejected      Code = "AUTH_REJECTED"
	CodeAuthExpired       Code = "AUTH_EXPIRED"
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeMalformedResponse Code = "MALFORMED_RESPONSE"
	CodeStorageCorrupt    Code = "STORAGE_CORRUPT"
	CodePersistence       Code = "PERSISTENCE_ERROR"
	CodeNotFound          Code = "NOT_FOUND"
	CodeInternal          Code = "INTERNAL_ERROR"
)

type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeNetwork: {
		HTTPStatus:     http.StatusServiceUnavailable,
		Retryable:      true,
		PublicMessage:  "service unreachable",
		DetailsAllowed: false,
	},
	CodeAuthRejected: {
		HTTPStatus:     http.StatusUnauthorized,
		Retryable:      false,
		PublicMessage:  "invalid credentials",
		DetailsAllowed: false,
	},
	CodeAuthExpired: {
		HTTPStatus:     http.StatusUnauthorized,
		Retryable:      false,
		PublicMessage:  "session expired",
		DetailsAllowed: false,
	},
	CodeValidation: {
		HTTPStatus:     http.StatusBadRequest,
		Retryable:      false,
		PublicMessage:  "validation failed",
		DetailsAllowed: true,
	},
	CodeMalformedResponse: {
		HTTPStatus:     http.StatusBadGateway,
		Retryable:      false,
		PublicMessage:  "unexpected response from server",
		DetailsAllowed: true,
	},
	CodeStorageCorrupt: {
		HTTPStatus:     http.StatusInternalServerError,
		Retryable:      false,
		PublicMessage:  "stored state unreadable",
		DetailsAllowed: false,
	},
	CodePersistence: {
		HTTPStatus:     http.StatusInternalServerError,
		Retryable:      true,
		PublicMessage:  "failed to persist state",
		DetailsAllowed: false,
	},
	CodeNotFound: {
		HTTPStatus:     http.StatusNotFound,
		Retryable:      false,
		PublicMessage:  "resource not found",
		DetailsAllowed: false,
	},
	CodeInternal: {
		HTTPStatus:     http.StatusInternalServerError,
		Retryable:      true,
		PublicMessage:  "internal error",
		DetailsAllowed: false,
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// FromStatus maps a backend HTTP status to an error code. A 401 means either
// an expired/invalid bearer token on an authenticated call or rejected
// credentials during login; authenticated tells the two apart.
func FromStatus(status int, authenticated bool) Code {
	switch {
	case status == http.StatusUnauthorized && authenticated:
		return CodeAuthExpired
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return CodeAuthRejected
	case status == http.StatusNotFound:
		return CodeNotFound
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return CodeValidation
	case status >= 500:
		return CodeNetwork
	default:
		return CodeInternal
	}
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}

// UserMessage returns a message suitable for surfacing to the UI layer:
// the typed message when present, the code's public message otherwise.
func UserMessage(err error) string {
	typed := As(err)
	if typed == nil {
		return MetadataFor(CodeInternal).PublicMessage
	}
	if msg := typed.Message(); msg != "" {
		return msg
	}
	return MetadataFor(typed.Code()).PublicMessage
}
