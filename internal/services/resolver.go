package services

import (
	"context"
	"fmt"

	"github.com/simpleshare/client/internal/models"
	"github.com/simpleshare/client/internal/remote"
)

// Resolver performs the secondary round-trips that turn raw remote records
// into display-ready ones: user ids to display names, (user, profile) pairs to
// profile names and pictures, and the lookups used when addressing a share.
type Resolver struct {
	docs remote.DocStore
}

func NewResolver(docs remote.DocStore) *Resolver {
	return &Resolver{docs: docs}
}

// GeneralInfo fetches a user's public general-info document. Returns nil when
// the document does not exist.
func (r *Resolver) GeneralInfo(ctx context.Context, uid string) (*models.PublicGeneralInfo, error) {
	data, found, err := r.docs.GetDoc(ctx, generalInfoDoc(uid))
	if err != nil {
		return nil, fmt.Errorf("general info for %s: %w", uid, err)
	}
	if !found {
		return nil, nil
	}
	info := models.PublicGeneralInfoFromDoc(data)
	return &info, nil
}

// DisplayName resolves a user's public display name, or "" when unknown.
func (r *Resolver) DisplayName(ctx context.Context, uid string) (string, error) {
	info, err := r.GeneralInfo(ctx, uid)
	if err != nil || info == nil {
		return "", err
	}
	return info.DisplayName, nil
}

// ProfileName resolves a profile's human-readable name, or "" when the
// profile does not exist.
func (r *Resolver) ProfileName(ctx context.Context, uid, profileID string) (string, error) {
	data, found, err := r.docs.GetDoc(ctx, profileDoc(uid, profileID))
	if err != nil {
		return "", fmt.Errorf("profile %s/%s: %w", uid, profileID, err)
	}
	if !found {
		return "", nil
	}
	return models.ProfileFromDoc(profileID, data).Name, nil
}

// ProfilePicture resolves a profile's picture reference, falling back to the
// sentinel when the profile is missing or has no picture.
func (r *Resolver) ProfilePicture(ctx context.Context, uid, profileID string) (string, error) {
	data, found, err := r.docs.GetDoc(ctx, profileDoc(uid, profileID))
	if err != nil {
		return "", fmt.Errorf("profile %s/%s: %w", uid, profileID, err)
	}
	if !found {
		return models.DefaultAvatarID, nil
	}
	return models.ProfileFromDoc(profileID, data).PFP, nil
}

// UIDByPhoneNumber resolves the account id registered for a phone number.
func (r *Resolver) UIDByPhoneNumber(ctx context.Context, phoneNumber string) (string, bool, error) {
	id, _, found, err := r.docs.QueryFirst(ctx, accountsCollection, "phoneNumber", phoneNumber)
	if err != nil {
		return "", false, fmt.Errorf("account by phone number: %w", err)
	}
	return id, found, nil
}

// ProfileIDByName resolves a profile id by name within one user's profile
// collection.
func (r *Resolver) ProfileIDByName(ctx context.Context, uid, profileName string) (string, bool, error) {
	id, _, found, err := r.docs.QueryFirst(ctx, profilesCollection(uid), "name", profileName)
	if err != nil {
		return "", false, fmt.Errorf("profile by name for %s: %w", uid, err)
	}
	return id, found, nil
}

// AccountInfo fetches a user's private account document, or nil when absent.
func (r *Resolver) AccountInfo(ctx context.Context, uid string) (*models.AccountInfo, error) {
	data, found, err := r.docs.GetDoc(ctx, accountDoc(uid))
	if err != nil {
		return nil, fmt.Errorf("account info for %s: %w", uid, err)
	}
	if !found {
		return nil, nil
	}
	info := models.AccountInfoFromDoc(data)
	return &info, nil
}
