package idp

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Code is a stable classification for identity provider failures.
// Callers branch on codes, never on message text.
type Code string

const (
	CodeInvalidCredential Code = "invalid-credential"
	CodeEmailInUse        Code = "email-already-in-use"
	CodeUserNotFound      Code = "user-not-found"
	CodeUserDisabled      Code = "user-disabled"
	CodeTokenExpired      Code = "token-expired"
	CodeCancelled         Code = "cancelled"
	CodeNetwork           Code = "network"
	CodeInternal          Code = "internal"
)

// Error is a classified identity provider failure
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a classified error
func NewError(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf extracts the classification from an error chain.
// Unclassified errors map to network or internal depending on their shape.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}

	var idpErr *Error
	if errors.As(err, &idpErr) {
		return idpErr.Code
	}

	if errors.Is(err, context.Canceled) {
		return CodeCancelled
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return CodeNetwork
	}

	return CodeInternal
}

// classifyServerCode maps identity service error identifiers to codes
func classifyServerCode(serverCode string) Code {
	switch serverCode {
	case "EMAIL_EXISTS":
		return CodeEmailInUse
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "INVALID_IDP_RESPONSE":
		return CodeInvalidCredential
	case "USER_NOT_FOUND":
		return CodeUserNotFound
	case "USER_DISABLED":
		return CodeUserDisabled
	case "TOKEN_EXPIRED", "INVALID_REFRESH_TOKEN":
		return CodeTokenExpired
	default:
		return CodeInternal
	}
}
