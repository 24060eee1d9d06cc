// Package otpauth parses otpauth:// URIs (the payload behind a scanned
// TOTP/HOTP QR code) into a factor.FactorType, and generates codes for
// the resulting factor using github.com/pquerna/otp.
package otpauth

import (
	"encoding/base32"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/84adam/mfa-core/algorithm"
	"github.com/84adam/mfa-core/factor"
	"github.com/84adam/mfa-core/mfaerrors"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
	"github.com/pquerna/otp/totp"
)

// ParsedOTP is the result of parsing an otpauth:// URI: the enrolled
// factor plus the account/service names derived from the label, which
// FactorType itself has no room for.
type ParsedOTP struct {
	Factor      factor.FactorType
	AccountName string
	ServiceName string
}

const (
	defaultDigits  = 6
	defaultPeriod  = 30
	defaultCounter = 1
)

// ParseURI parses a URI of the form
// otpauth://{totp|hotp}/{label}?secret=...&issuer=...&algorithm=...&digits=...&period=...&counter=...
// per spec §4.6.
func ParseURI(raw string) (ParsedOTP, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return ParsedOTP{}, mfaerrors.DataDecodingFailed(err)
	}
	if u.Scheme != "otpauth" {
		return ParsedOTP{}, mfaerrors.InvalidRegistrationData()
	}

	query := u.Query()

	secret := query.Get("secret")
	if secret == "" {
		return ParsedOTP{}, mfaerrors.InvalidRegistrationData()
	}
	if err := validateBase32(secret); err != nil {
		return ParsedOTP{}, mfaerrors.DataDecodingFailed(err)
	}

	alg := algorithm.SHA1
	if rawAlg := query.Get("algorithm"); rawAlg != "" {
		alg, err = algorithm.Parse(rawAlg)
		if err != nil {
			return ParsedOTP{}, mfaerrors.InvalidAlgorithm()
		}
	}

	digits := defaultDigits
	if rawDigits := query.Get("digits"); rawDigits != "" {
		digits, err = strconv.Atoi(rawDigits)
		if err != nil {
			return ParsedOTP{}, mfaerrors.DataDecodingFailed(err)
		}
	}
	if digits != 6 && digits != 8 {
		return ParsedOTP{}, mfaerrors.InvalidRegistrationData()
	}

	issuer := query.Get("issuer")
	accountName, serviceName := splitLabel(strings.TrimPrefix(u.Path, "/"), issuer)

	id := strconv.FormatInt(time.Now().UnixNano(), 36)

	switch strings.ToLower(u.Host) {
	case "totp":
		period := defaultPeriod
		if rawPeriod := query.Get("period"); rawPeriod != "" {
			period, err = strconv.Atoi(rawPeriod)
			if err != nil {
				return ParsedOTP{}, mfaerrors.DataDecodingFailed(err)
			}
		}
		f, err := factor.NewTOTP(factor.TOTPFactorInfo{
			IDValue:   id,
			Secret:    secret,
			Algorithm: alg,
			Digits:    digits,
			Period:    period,
		})
		if err != nil {
			return ParsedOTP{}, err
		}
		return ParsedOTP{Factor: f, AccountName: accountName, ServiceName: serviceName}, nil

	case "hotp":
		counter := uint64(defaultCounter)
		if rawCounter := query.Get("counter"); rawCounter != "" {
			parsed, err := strconv.ParseUint(rawCounter, 10, 64)
			if err != nil {
				return ParsedOTP{}, mfaerrors.DataDecodingFailed(err)
			}
			counter = parsed
		}
		f, err := factor.NewHOTP(factor.HOTPFactorInfo{
			IDValue:   id,
			Secret:    secret,
			Algorithm: alg,
			Digits:    digits,
			Counter:   counter,
		})
		if err != nil {
			return ParsedOTP{}, err
		}
		return ParsedOTP{Factor: f, AccountName: accountName, ServiceName: serviceName}, nil

	default:
		return ParsedOTP{}, mfaerrors.InvalidRegistrationData()
	}
}

// splitLabel splits "issuer:account" on the first colon when the left
// side equals issuer, per spec §4.6's label-parsing rule.
func splitLabel(label, issuer string) (accountName, serviceName string) {
	if idx := strings.Index(label, ":"); idx >= 0 {
		left := strings.TrimSpace(label[:idx])
		right := strings.TrimSpace(label[idx+1:])
		if issuer != "" && left == issuer {
			return right, issuer
		}
	}
	return label, issuer
}

// validateBase32 rejects any character outside the RFC 4648 alphabet;
// a padding '=' terminates input early but does not itself fail decoding.
func validateBase32(secret string) error {
	trimmed := secret
	if i := strings.IndexByte(trimmed, '='); i >= 0 {
		trimmed = trimmed[:i]
	}
	trimmed = strings.ToUpper(trimmed)
	if _, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(trimmed); err != nil {
		return fmt.Errorf("otpauth: invalid base32 secret: %w", err)
	}
	return nil
}

func otpAlgorithm(a algorithm.SigningAlgorithm) otp.Algorithm {
	switch a {
	case algorithm.SHA256:
		return otp.AlgorithmSHA256
	case algorithm.SHA384:
		return otp.AlgorithmSHA384
	case algorithm.SHA512:
		return otp.AlgorithmSHA512
	default:
		return otp.AlgorithmSHA1
	}
}

func otpDigits(d int) otp.Digits {
	if d == 8 {
		return otp.DigitsEight
	}
	return otp.DigitsSix
}

// GenerateTOTPCode returns the TOTP code for info valid at t.
func GenerateTOTPCode(info factor.TOTPFactorInfo, t time.Time) (string, error) {
	code, err := totp.GenerateCodeCustom(info.Secret, t, totp.ValidateOpts{
		Period:    uint(info.Period),
		Digits:    otpDigits(info.Digits),
		Algorithm: otpAlgorithm(info.Algorithm),
	})
	if err != nil {
		return "", mfaerrors.Underlying(err)
	}
	return code, nil
}

// GenerateHOTPCode returns the HOTP code for info at its current counter.
func GenerateHOTPCode(info factor.HOTPFactorInfo) (string, error) {
	code, err := hotp.GenerateCodeCustom(info.Secret, info.Counter, hotp.ValidateOpts{
		Digits:    otpDigits(info.Digits),
		Algorithm: otpAlgorithm(info.Algorithm),
	})
	if err != nil {
		return "", mfaerrors.Underlying(err)
	}
	return code, nil
}
