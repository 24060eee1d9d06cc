// Package keystore defines the secure local key-store capability the
// registration and service layers depend on: store, read, rename,
// delete, exists, plus an access-control flag (spec §1). This package
// does NOT make a persistence-format decision for a real device (an
// explicit Non-goal); InMemoryKeyStore is a reference/test
// implementation, not a deployment target.
package keystore

import (
	"context"

	"github.com/84adam/mfa-core/mfaerrors"
)

// AccessControl governs what is required before a stored key can be
// read back. Spec §1 describes the capability as carrying "an
// access-control flag"; biometry-gated reads are a suspend point per
// spec §5(iii).
type AccessControl int

const (
	// AccessControlNone allows Read with no additional gate.
	AccessControlNone AccessControl = iota
	// AccessControlBiometry requires a successful biometric evaluation
	// before Read returns the key material.
	AccessControlBiometry
	// AccessControlUserPresence requires only a user-presence check
	// (no biometric sensor) before Read returns the key material.
	AccessControlUserPresence
)

// KeyStore is the capability interface. Labels are globally unique per
// device (spec §5 "Shared resources").
type KeyStore interface {
	Store(ctx context.Context, label string, key any, ac AccessControl) error
	Read(ctx context.Context, label string) (any, error)
	Rename(ctx context.Context, oldLabel, newLabel string) error
	Delete(ctx context.Context, label string) error
	Exists(ctx context.Context, label string) (bool, error)
}

// Errors returned by implementations are drawn from the key-store slice
// of the spec's error taxonomy (§6): invalidKey, duplicateKey,
// unexpectedData, unhandledError(message).
var (
	ErrInvalidKey     = mfaerrors.Sentinel(mfaerrors.CodeInvalidKey)
	ErrDuplicateKey   = mfaerrors.Sentinel(mfaerrors.CodeDuplicateKey)
	ErrUnexpectedData = mfaerrors.Sentinel(mfaerrors.CodeUnexpectedData)
)
