package services

import "errors"

var (
	ErrNotSignedIn              = errors.New("no signed-in user")
	ErrNoProfileSelected        = errors.New("no profile is selected")
	ErrRecipientNotFound        = errors.New("recipient user not found")
	ErrRecipientProfileNotFound = errors.New("recipient profile not found")
	ErrProfileNotFound          = errors.New("profile not found")
	ErrProfileNameTaken         = errors.New("profile name already in use")
	// ErrNoAlternateProfile means the delete target is the default profile and
	// no other profile exists to promote. Deleting the last profile is
	// disallowed.
	ErrNoAlternateProfile = errors.New("no alternate profile to promote")
)
