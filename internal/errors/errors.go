// Package errors defines the stable error kinds the app reports to callers
// and the ServiceError type that carries them to the HTTP layer.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind is the machine-readable error identifier written to response
// bodies. Values are stable.
type ErrorKind string

const (
	KindInvalidToken        ErrorKind = "InvalidToken"
	KindUnreachableInstance ErrorKind = "UnreachableInstance"
	KindStoreIO             ErrorKind = "StoreIo"
	KindStoreCorrupt        ErrorKind = "StoreCorrupt"
	KindMissingAPIURL       ErrorKind = "MissingApiUrl"
	KindInvalidAPIURL       ErrorKind = "InvalidApiUrl"
	KindMissingAuthToken    ErrorKind = "MissingAuthToken"
	KindAPIURLNotAllowed    ErrorKind = "ApiUrlNotAllowed"
	KindRateLimited         ErrorKind = "RateLimited"
	KindInternal            ErrorKind = "Internal"
)

// ServiceError is an error with an ErrorKind and the HTTP status it maps to.
type ServiceError struct {
	Code       ErrorKind
	Message    string
	HTTPStatus int
	Details    map[string]interface{}
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Is matches another ServiceError with the same Code.
func (e *ServiceError) Is(target error) bool {
	t, ok := target.(*ServiceError)
	return ok && t.Code == e.Code
}

// WithDetails returns a copy of e with key set in Details.
func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	cp := *e
	cp.Details = make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		cp.Details[k] = v
	}
	cp.Details[key] = value
	return &cp
}

// New builds a ServiceError.
func New(code ErrorKind, status int, message string, err error) *ServiceError {
	return &ServiceError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// GetServiceError returns the first ServiceError in err's chain, or nil.
func GetServiceError(err error) *ServiceError {
	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}
	return nil
}

// KindOf returns the ErrorKind of err, defaulting to KindInternal.
func KindOf(err error) ErrorKind {
	if se := GetServiceError(err); se != nil {
		return se.Code
	}
	return KindInternal
}

func InvalidToken(err error) *ServiceError {
	return New(KindInvalidToken, http.StatusUnauthorized, "the Saleor instance rejected the auth token", err)
}

func UnreachableInstance(err error) *ServiceError {
	return New(KindUnreachableInstance, http.StatusBadGateway, "could not reach the Saleor instance to validate the token", err)
}

// InstanceTimeout is UnreachableInstance raised by the validation deadline.
func InstanceTimeout(err error) *ServiceError {
	return New(KindUnreachableInstance, http.StatusGatewayTimeout, "the Saleor instance did not answer in time", err).
		WithDetails("timeout", true)
}

func StoreIO(err error) *ServiceError {
	return New(KindStoreIO, http.StatusInternalServerError, "the installation could not be saved", err)
}

func StoreCorrupt(err error) *ServiceError {
	return New(KindStoreCorrupt, http.StatusInternalServerError, "the installation store is unreadable", err)
}

func MissingAPIURL() *ServiceError {
	return New(KindMissingAPIURL, http.StatusBadRequest, "the Saleor-Api-Url header is required", nil)
}

func InvalidAPIURL(reason string) *ServiceError {
	return New(KindInvalidAPIURL, http.StatusBadRequest, "the Saleor API URL is not a valid http(s) URL", nil).
		WithDetails("reason", reason)
}

func MissingAuthToken() *ServiceError {
	return New(KindMissingAuthToken, http.StatusBadRequest, "auth_token is required", nil)
}

func APIURLNotAllowed() *ServiceError {
	return New(KindAPIURLNotAllowed, http.StatusForbidden, "this Saleor instance is not allowed to install the app", nil)
}

func RateLimited(limit int, window string) *ServiceError {
	return New(KindRateLimited, http.StatusTooManyRequests, "too many requests", nil).
		WithDetails("limit", limit).
		WithDetails("window", window)
}

func Internal(message string, err error) *ServiceError {
	return New(KindInternal, http.StatusInternalServerError, message, err)
}
