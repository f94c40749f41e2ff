package remote

import (
	"context"

	fbauth "firebase.google.com/go/v4/auth"

	"github.com/simpleshare/client/internal/models"
)

// FirebaseIdentity implements Identity on the Firebase Auth client.
type FirebaseIdentity struct {
	auth *fbauth.Client
}

func NewFirebaseIdentity(auth *fbauth.Client) *FirebaseIdentity {
	return &FirebaseIdentity{auth: auth}
}

func (f *FirebaseIdentity) VerifyIDToken(ctx context.Context, idToken string) (*models.User, error) {
	tok, err := f.auth.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, mapAuthError(err)
	}
	return f.UserByUID(ctx, tok.UID)
}

func (f *FirebaseIdentity) UserByUID(ctx context.Context, uid string) (*models.User, error) {
	rec, err := f.auth.GetUser(ctx, uid)
	if err != nil {
		return nil, mapAuthError(err)
	}
	return &models.User{
		UID:         rec.UID,
		DisplayName: rec.DisplayName,
	}, nil
}

func mapAuthError(err error) *AuthError {
	switch {
	case fbauth.IsIDTokenExpired(err):
		return &AuthError{Code: AuthExpiredToken, Err: err}
	case fbauth.IsIDTokenRevoked(err):
		return &AuthError{Code: AuthExpiredToken, Err: err}
	case fbauth.IsIDTokenInvalid(err):
		return &AuthError{Code: AuthInvalidCredentials, Err: err}
	case fbauth.IsUserNotFound(err):
		return &AuthError{Code: AuthUserNotFound, Err: err}
	default:
		return &AuthError{Code: AuthUnexpected, Err: err}
	}
}
