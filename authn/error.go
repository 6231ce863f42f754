package authn

import (
	"github.com/scimdb/scimdb/kit/errors"
)

var (
	// ErrAuthenticationFailed is returned when no tenant maps to the
	// presented credential. The cause never names the secret.
	ErrAuthenticationFailed = &errors.Error{
		Code: errors.EUnauthorized,
		Msg:  "authentication failed",
	}

	// ErrCredentialConsumed is returned when a credential is presented a
	// second time, regardless of the first attempt's outcome.
	ErrCredentialConsumed = &errors.Error{
		Code: errors.EUnauthorized,
		Msg:  "credential already consumed",
	}

	// ErrWitnessExpired is returned when deriving authority from a witness
	// past its expiry.
	ErrWitnessExpired = &errors.Error{
		Code: errors.EUnauthorized,
		Msg:  "authentication witness expired",
	}

	// ErrWitnessSpent is returned when a witness is used to derive
	// authority a second time.
	ErrWitnessSpent = &errors.Error{
		Code: errors.EUnauthorized,
		Msg:  "authentication witness already spent",
	}

	// ErrAuthoritySpent is returned when an authority is used to derive a
	// request context a second time.
	ErrAuthoritySpent = &errors.Error{
		Code: errors.EUnauthorized,
		Msg:  "tenant authority already spent",
	}

	// ErrUnknownCredential is returned by directories for a secret they
	// hold no entry for.
	ErrUnknownCredential = &errors.Error{
		Code: errors.EUnauthorized,
		Msg:  "unknown credential",
	}
)

// None of the chain errors are retryable with the same values. A caller
// that hits one must obtain a fresh credential and start over.
