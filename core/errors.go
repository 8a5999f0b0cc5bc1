package core

import "errors"

// ErrUnauthenticated is matched by every credential failure. Transports map it
// to their "unauthenticated" answer (401, codes.Unauthenticated).
var ErrUnauthenticated = errors.New("unauthenticated")

// Sentinel errors for each way a credential can be rejected. A
// *ValidationError matches exactly one of these (by its Code) as well as
// ErrUnauthenticated.
var (
	ErrCredentialMissing   = errors.New("credential missing")
	ErrCredentialMalformed = errors.New("credential malformed")
	ErrMissingKeyID        = errors.New("credential has no key id")
	ErrUnknownKey          = errors.New("credential signed by an unknown key")
	ErrSignatureInvalid    = errors.New("credential signature invalid")
	ErrExpired             = errors.New("credential expired")
	ErrClaimMismatch       = errors.New("credential claims rejected")
)

var (
	// ErrKeyProviderUnavailable is returned when the signing keys could not be
	// fetched. It is fatal at startup and recoverable at runtime.
	ErrKeyProviderUnavailable = errors.New("key provider unavailable")

	// ErrIdentityNotFound is returned when no identity is attached to the context.
	ErrIdentityNotFound = errors.New("identity not found in context")
)

// Error codes carried by ValidationError. They are logged and used as metric
// labels; responses never disclose them.
const (
	ErrorCodeCredentialMissing   = "credential_missing"
	ErrorCodeCredentialMalformed = "credential_malformed"
	ErrorCodeMissingKeyID        = "missing_key_id"
	ErrorCodeUnknownKey          = "unknown_key"
	ErrorCodeSignatureInvalid    = "signature_invalid"
	ErrorCodeExpired             = "expired"
	ErrorCodeClaimMismatch       = "claim_mismatch"
)

var codeSentinels = map[string]error{
	ErrorCodeCredentialMissing:   ErrCredentialMissing,
	ErrorCodeCredentialMalformed: ErrCredentialMalformed,
	ErrorCodeMissingKeyID:        ErrMissingKeyID,
	ErrorCodeUnknownKey:          ErrUnknownKey,
	ErrorCodeSignatureInvalid:    ErrSignatureInvalid,
	ErrorCodeExpired:             ErrExpired,
	ErrorCodeClaimMismatch:       ErrClaimMismatch,
}

// ValidationError describes why a credential was rejected.
type ValidationError struct {
	// Code is a machine-readable error code (e.g. "expired", "unknown_key").
	Code string

	// Message is a human-readable error message.
	Message string

	// Details contains the underlying error, if any.
	Details error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Details != nil {
		return e.Message + ": " + e.Details.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ValidationError) Unwrap() error {
	return e.Details
}

// Is reports whether target is ErrUnauthenticated or the sentinel for e.Code.
func (e *ValidationError) Is(target error) bool {
	if target == ErrUnauthenticated {
		return true
	}
	sentinel, ok := codeSentinels[e.Code]
	return ok && sentinel == target
}

// NewValidationError creates a new ValidationError with the given code and message.
func NewValidationError(code, message string, details error) *ValidationError {
	return &ValidationError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// ErrorCode returns the Code of the first ValidationError in err's chain, or
// "error" when there is none.
func ErrorCode(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Code
	}
	return "error"
}
