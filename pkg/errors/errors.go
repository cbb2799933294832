package errors

import (
	stdErrors "errors"
	"net/http"
)

// Code classifies a failure. It picks the HTTP status, the text a submitter
// sees and the error_code field in logs.
type Code string

const (
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeVerification Code = "VERIFICATION_ERROR"
	CodeNotFound     Code = "NOT_FOUND"
	CodeRateLimit    Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal     Code = "INTERNAL_ERROR"
	CodeDependency   Code = "DEPENDENCY_ERROR"
	CodeConsistency  Code = "CONSISTENCY_ERROR"
	CodeStartup      Code = "STARTUP_ERROR"
)

// ServerErrorMessage is shown to submitters for every failure that is not their fault.
const ServerErrorMessage = "Sunucuda bir hata oluştu. Lütfen sayfayı yenileyip tekrar deneyiniz."

type Metadata struct {
	HTTPStatus    int
	PublicMessage string
	// UserSafe marks codes whose own message may be shown verbatim.
	UserSafe bool
}

var internal = Metadata{HTTPStatus: http.StatusInternalServerError, PublicMessage: ServerErrorMessage}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {HTTPStatus: http.StatusBadRequest, UserSafe: true},
	CodeVerification: {
		HTTPStatus:    http.StatusBadRequest,
		PublicMessage: "Güvenlik doğrulaması hatası. Lütfen sayfayı yenileyip tekrar deneyiniz.",
	},
	CodeNotFound: {HTTPStatus: http.StatusNotFound, PublicMessage: "Aradığınız içerik bulunamadı."},
	CodeRateLimit: {
		HTTPStatus:    http.StatusTooManyRequests,
		PublicMessage: "Çok fazla deneme yaptınız. Lütfen biraz sonra tekrar deneyiniz.",
	},
	CodeInternal:    internal,
	CodeConsistency: internal,
	CodeDependency:  {HTTPStatus: http.StatusServiceUnavailable, PublicMessage: ServerErrorMessage},
	CodeStartup:     {HTTPStatus: http.StatusServiceUnavailable, PublicMessage: ServerErrorMessage},
}

// MetadataFor falls back to CodeInternal for unknown codes.
func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return internal
}

// PublicMessage returns the text that may be shown to an end user for err.
func PublicMessage(err error) string {
	typed := As(err)
	if typed == nil {
		return ServerErrorMessage
	}
	meta := MetadataFor(typed.code)
	if meta.UserSafe && typed.message != "" {
		return typed.message
	}
	return meta.PublicMessage
}

// Error is a coded failure. Details end up in logs, never in responses.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Wrap attaches code and message to err. A nil err gives the same result as New.
func Wrap(code Code, err error, message string) *Error {
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
	if e != nil {
		e.details = details
	}
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	s := string(e.code) + ": " + e.message
	if e.cause != nil {
		s += ": " + e.cause.Error()
	}
	return s
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the outermost *Error in err's chain.
func As(err error) *Error {
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsCode reports whether any *Error in err's chain carries code, so a
// dependency failure wrapped as internal still matches CodeDependency.
func IsCode(err error, code Code) bool {
	for err != nil {
		typed := As(err)
		if typed == nil {
			return false
		}
		if typed.code == code {
			return true
		}
		err = typed.cause
	}
	return false
}
