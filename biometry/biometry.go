// Package biometry defines the biometric evaluation capability the
// cloud registration provider depends on: "a capability that either
// returns a biometry subtype — face or fingerprint — or fails" (spec
// §1). The host application owns the actual platform biometric prompt;
// this package only defines the seam and a policy constant.
package biometry

import "context"

// Subtype is the biometric sensor type a successful evaluation reports.
type Subtype string

const (
	SubtypeFaceID  Subtype = "faceID"
	SubtypeTouchID Subtype = "touchID"
	SubtypeNone    Subtype = "none"
)

// Policy names the evaluation policy requested. The core always asks
// for device-owner authentication per spec §4.4.
type Policy string

const PolicyDeviceOwnerAuthenticationWithBiometrics Policy = "deviceOwnerAuthenticationWithBiometrics"

// Evaluator is the capability interface.
type Evaluator interface {
	// CanEvaluate reports whether biometric hardware is available and
	// enrolled, without prompting the user.
	CanEvaluate(ctx context.Context) (bool, error)
	// Evaluate prompts the user under policy and returns the sensor
	// subtype used on success.
	Evaluate(ctx context.Context, policy Policy, reason string) (Subtype, error)
}
