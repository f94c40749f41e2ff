package remote

import "fmt"

// AuthErrorCode identifies one failure class of the sign-in flow. Sign-in
// failures are surfaced to the caller and never retried automatically.
type AuthErrorCode string

const (
	AuthCancelled          AuthErrorCode = "sign_in_cancelled"
	AuthInvalidCredentials AuthErrorCode = "invalid_credentials"
	AuthAccountDisabled    AuthErrorCode = "account_disabled"
	AuthExpiredToken       AuthErrorCode = "expired_token"
	AuthEmailUnverified    AuthErrorCode = "email_unverified"
	AuthPopupBlocked       AuthErrorCode = "popup_blocked"
	AuthPopupAlreadyOpen   AuthErrorCode = "popup_already_open"
	AuthUserNotFound       AuthErrorCode = "user_not_found"
	AuthNoNetwork          AuthErrorCode = "no_network"
	AuthUnexpected         AuthErrorCode = "unexpected"
)

// AuthError wraps an identity-provider failure with its taxonomy code.
type AuthError struct {
	Code AuthErrorCode
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: %s: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("auth: %s", e.Code)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// ParseClientAuthCode maps a provider error code reported by the host
// application's sign-in UI (popup and credential failures happen there, not in
// this process) onto the taxonomy.
func ParseClientAuthCode(code string) *AuthError {
	switch code {
	case "auth/popup-closed-by-user":
		return &AuthError{Code: AuthCancelled}
	case "auth/popup-blocked":
		return &AuthError{Code: AuthPopupBlocked}
	case "auth/cancelled-popup-request":
		return &AuthError{Code: AuthPopupAlreadyOpen}
	case "auth/user-token-expired":
		return &AuthError{Code: AuthExpiredToken}
	case "auth/unverified-email":
		return &AuthError{Code: AuthEmailUnverified}
	case "auth/user-disabled":
		return &AuthError{Code: AuthAccountDisabled}
	case "auth/invalid-credential":
		return &AuthError{Code: AuthInvalidCredentials}
	case "auth/network-request-failed":
		return &AuthError{Code: AuthNoNetwork}
	default:
		return &AuthError{Code: AuthUnexpected, Err: fmt.Errorf("provider code %q", code)}
	}
}
