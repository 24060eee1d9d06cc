// Package mfaerrors defines the closed error taxonomy surfaced across the
// registration and service boundaries.
package mfaerrors

import (
	"errors"
	"fmt"
)

// Code identifies one of the error conditions named in the taxonomy.
type Code string

const (
	CodeDataDecodingFailed        Code = "dataDecodingFailed"
	CodeInvalidRegistrationData   Code = "invalidRegistrationData"
	CodeInvalidState              Code = "invalidState"
	CodeInvalidAlgorithm          Code = "invalidAlgorithm"
	CodeNoEnrollableFactors       Code = "noEnrollableFactors"
	CodeSignatureMethodNotEnabled Code = "signatureMethodNotEnabled"
	CodeEnrollmentFailed          Code = "enrollmentFailed"
	CodeDataInitializationFailed  Code = "dataInitializationFailed"
	CodeMissingAuthenticatorID    Code = "missingAuthenticatorIdentifier"
	CodeBiometryFailed            Code = "biometryFailed"
	CodeFailedBiometryVerify      Code = "failedBiometryVerification"
	CodeUnderlyingError           Code = "underlyingError"
	CodeDataCorrupted             Code = "dataCorrupted"
	CodeTokenNotFound             Code = "tokenNotFound"
	CodeInvalidKey                Code = "invalidKey"
	CodeDuplicateKey              Code = "duplicateKey"
	CodeUnexpectedData            Code = "unexpectedData"
	CodeUnhandledError            Code = "unhandledError"
)

// Error is the concrete error value carried across the boundary. It wraps
// an optional cause and an optional human-readable detail (e.g. a subType
// name or an HTTP status hint) without losing the closed Code.
type Error struct {
	code   Code
	detail string
	cause  error
}

func (e *Error) Error() string {
	switch {
	case e.detail != "" && e.cause != nil:
		return fmt.Sprintf("%s: %s: %v", e.code, e.detail, e.cause)
	case e.detail != "":
		return fmt.Sprintf("%s: %s", e.code, e.detail)
	case e.cause != nil:
		return fmt.Sprintf("%s: %v", e.code, e.cause)
	default:
		return string(e.code)
	}
}

func (e *Error) Unwrap() error { return e.cause }

// Code returns the taxonomy code this error carries.
func (e *Error) Code() Code { return e.code }

// Is lets errors.Is(err, mfaerrors.Sentinel(code)) match on Code alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.code == e.code
}

func new_(code Code, detail string, cause error) *Error {
	return &Error{code: code, detail: detail, cause: cause}
}

// Sentinel returns a comparison-only error for use with errors.Is, e.g.
// errors.Is(err, mfaerrors.Sentinel(mfaerrors.CodeInvalidState)).
func Sentinel(code Code) error { return &Error{code: code} }

// HasCode reports whether err (or something it wraps) carries code.
func HasCode(err error, code Code) bool {
	return errors.Is(err, Sentinel(code))
}

func DataDecodingFailed(cause error) error {
	return new_(CodeDataDecodingFailed, "", cause)
}

func InvalidRegistrationData() error {
	return new_(CodeInvalidRegistrationData, "", nil)
}

func InvalidState() error {
	return new_(CodeInvalidState, "", nil)
}

func InvalidAlgorithm() error {
	return new_(CodeInvalidAlgorithm, "", nil)
}

func NoEnrollableFactors() error {
	return new_(CodeNoEnrollableFactors, "", nil)
}

// SignatureMethodNotEnabled carries the titlecased factor subType name
// (e.g. "UserPresence", "Face") per spec §4.4 step 2.
func SignatureMethodNotEnabled(subType string) error {
	return new_(CodeSignatureMethodNotEnabled, subType, nil)
}

func EnrollmentFailed(reason string) error {
	return new_(CodeEnrollmentFailed, reason, nil)
}

func DataInitializationFailed(cause error) error {
	return new_(CodeDataInitializationFailed, "", cause)
}

func MissingAuthenticatorIdentifier() error {
	return new_(CodeMissingAuthenticatorID, "", nil)
}

func BiometryFailed(reason string) error {
	return new_(CodeBiometryFailed, reason, nil)
}

func FailedBiometryVerification(reason string) error {
	return new_(CodeFailedBiometryVerify, reason, nil)
}

func Underlying(cause error) error {
	return new_(CodeUnderlyingError, "", cause)
}

// DataCorrupted reports a corrupted-data diagnostic. The factor codec uses
// this with the fixed message "No valid factor type found."
func DataCorrupted(message string) error {
	return new_(CodeDataCorrupted, message, nil)
}

func TokenNotFound() error {
	return new_(CodeTokenNotFound, "", nil)
}

func InvalidKey() error {
	return new_(CodeInvalidKey, "", nil)
}

func DuplicateKey() error {
	return new_(CodeDuplicateKey, "", nil)
}

func UnexpectedData() error {
	return new_(CodeUnexpectedData, "", nil)
}

func UnhandledError(message string) error {
	return new_(CodeUnhandledError, message, nil)
}
