package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/simpleshare/client/internal/models"
)

// SendShareRequest describes an outgoing share. The recipient is addressed by
// phone number and profile name and resolved before anything is written.
type SendShareRequest struct {
	ToPhoneNumber string
	ToProfileName string
	TextContent   string
	// File is the optional attachment. When set, the upload must succeed
	// before the share record is written.
	File models.UploadSource
}

// SendShare resolves the recipient, uploads the optional attachment, writes
// the share record into the recipient's share collection and appends an
// enriched outbox entry locally. The remote write happens strictly after both
// lookups and the upload: no share record ever references an unresolved
// recipient or a missing file URL.
func (e *Engine) SendShare(ctx context.Context, req SendShareRequest) (*models.OutboxEntry, error) {
	user := e.state.User()
	if user == nil {
		return nil, ErrNotSignedIn
	}
	fromProfileID := e.state.CurrentProfileID()
	if fromProfileID == "" {
		return nil, ErrNoProfileSelected
	}

	toUID, found, err := e.resolver.UIDByPhoneNumber(ctx, req.ToPhoneNumber)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrRecipientNotFound
	}

	toProfileID, found, err := e.resolver.ProfileIDByName(ctx, toUID, req.ToProfileName)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrRecipientProfileNotFound
	}

	var fileURL string
	if req.File != nil {
		objectPath := "files/" + uuid.New().String() + "." + sourceExtension(req.File)
		fileURL, err = e.blobs.Upload(ctx, objectPath, req.File, map[string]string{
			"owner":     user.UID,
			"recipient": toUID,
		})
		if err != nil {
			return nil, fmt.Errorf("upload attachment: %w", err)
		}
	}

	share := models.Share{
		ID:            uuid.New().String(),
		TextContent:   req.TextContent,
		FileURL:       fileURL,
		FromUID:       user.UID,
		FromProfileID: fromProfileID,
		ToUID:         toUID,
		ToProfileID:   toProfileID,
	}
	if err := e.docs.SetDoc(ctx, shareDoc(toUID, toProfileID, share.ID), share.Doc()); err != nil {
		return nil, fmt.Errorf("write share: %w", err)
	}

	share.ToProfileName = req.ToProfileName
	if name, err := e.resolver.DisplayName(ctx, toUID); err != nil {
		log.Printf("[engine] resolve recipient display name: %v", err)
	} else {
		share.ToDisplayName = name
	}
	pfpURL, err := e.resolver.ProfilePicture(ctx, toUID, toProfileID)
	if err != nil {
		log.Printf("[engine] resolve recipient picture: %v", err)
		pfpURL = models.DefaultAvatarID
	}

	entry := models.OutboxEntry{Share: share, PFPURL: pfpURL}
	e.state.AddOutboxEntry(entry)
	return &entry, nil
}

// DeleteShare removes the remote share record, then its attached blob.
// A blob-delete failure after the record is gone is logged, not surfaced: the
// orphaned blob is an acceptable leak reconciled out-of-band.
func (e *Engine) DeleteShare(ctx context.Context, share models.Share) error {
	if err := e.docs.DeleteDoc(ctx, shareDoc(share.ToUID, share.ToProfileID, share.ID)); err != nil {
		return fmt.Errorf("delete share: %w", err)
	}
	if share.FileURL != "" {
		if err := e.blobs.DeleteByURL(ctx, share.FileURL); err != nil {
			log.Printf("[engine] delete share blob share=%s: %v", share.ID, err)
		}
	}
	return nil
}

// CreateProfileRequest describes a new profile. Picture is the optional
// picture upload; PFP is a pre-existing picture reference used when no upload
// is supplied.
type CreateProfileRequest struct {
	Name    string
	PFP     string
	Picture models.UploadSource
}

// CreateProfile uploads the optional picture, writes the profile record, then
// prepends the new id to the cross-device ordering index. The index update is
// a separate document write: if it fails after the profile write succeeded
// the profile exists but is unordered, and the error is still surfaced.
func (e *Engine) CreateProfile(ctx context.Context, req CreateProfileRequest) (string, error) {
	user := e.state.User()
	if user == nil {
		return "", ErrNotSignedIn
	}

	if _, taken, err := e.resolver.ProfileIDByName(ctx, user.UID, req.Name); err != nil {
		return "", err
	} else if taken {
		return "", ErrProfileNameTaken
	}

	pfp := req.PFP
	if req.Picture != nil {
		url, err := e.uploadProfilePicture(ctx, user.UID, req.Picture)
		if err != nil {
			return "", err
		}
		pfp = url
	}
	if pfp == "" {
		pfp = models.DefaultAvatarID
	}

	profileID := uuid.New().String()
	profile := models.Profile{ID: profileID, Name: req.Name, PFP: pfp}
	if err := e.docs.SetDoc(ctx, profileDoc(user.UID, profileID), profile.Doc()); err != nil {
		return "", fmt.Errorf("write profile: %w", err)
	}

	info, err := e.resolver.GeneralInfo(ctx, user.UID)
	if err != nil {
		return profileID, fmt.Errorf("order index read: %w", err)
	}
	if info == nil {
		// No general info document yet; ordering degrades until the account
		// setup flow writes one.
		log.Printf("[engine] no general info for %s, new profile unordered", user.UID)
		return profileID, nil
	}
	positions := info.ProfilePositions
	if len(positions) == 0 {
		for _, p := range e.state.Profiles() {
			if p.ID != profileID {
				positions = append(positions, p.ID)
			}
		}
	}
	info.ProfilePositions = append([]string{profileID}, positions...)
	if err := e.docs.SetDoc(ctx, generalInfoDoc(user.UID), info.Doc()); err != nil {
		return profileID, fmt.Errorf("order index update: %w", err)
	}
	return profileID, nil
}

// UpdateProfile rewrites a profile record, optionally uploading a replacement
// picture first.
func (e *Engine) UpdateProfile(ctx context.Context, profile models.Profile, picture models.UploadSource) error {
	user := e.state.User()
	if user == nil {
		return ErrNotSignedIn
	}
	if picture != nil {
		url, err := e.uploadProfilePicture(ctx, user.UID, picture)
		if err != nil {
			return err
		}
		profile.PFP = url
	}
	if profile.PFP == "" {
		profile.PFP = models.DefaultAvatarID
	}
	if err := e.docs.SetDoc(ctx, profileDoc(user.UID, profile.ID), profile.Doc()); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// DeleteProfile removes a profile and everything filed under it. When the
// target is the current default, another profile is promoted first so a
// concurrent reader never observes a state with no valid default. Deleting
// the last remaining profile is refused.
func (e *Engine) DeleteProfile(ctx context.Context, profileID string) error {
	user := e.state.User()
	if user == nil {
		return ErrNotSignedIn
	}
	profile, ok := e.state.ProfileByID(profileID)
	if !ok {
		return ErrProfileNotFound
	}
	// The last remaining profile is never deletable, whatever the default
	// marker says; a missing or stale general-info doc must not open a path
	// to an account with no profiles.
	if e.state.ProfileCount() <= 1 {
		return ErrNoAlternateProfile
	}

	info, err := e.resolver.GeneralInfo(ctx, user.UID)
	if err != nil {
		return err
	}

	if info != nil && info.DefaultProfileID == profileID {
		replacement := ""
		for _, p := range e.state.Profiles() {
			if p.ID != profileID {
				replacement = p.ID
				break
			}
		}
		if replacement == "" {
			return ErrNoAlternateProfile
		}
		info.DefaultProfileID = replacement
		if err := e.docs.SetDoc(ctx, generalInfoDoc(user.UID), info.Doc()); err != nil {
			return fmt.Errorf("promote default profile: %w", err)
		}
	}

	if profile.PFP != "" && profile.PFP != models.DefaultAvatarID {
		if err := e.blobs.DeleteByURL(ctx, profile.PFP); err != nil {
			return fmt.Errorf("delete profile picture: %w", err)
		}
	}

	if err := e.docs.DeleteDoc(ctx, profileDoc(user.UID, profileID)); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}

	shareIDs, err := e.docs.ListDocIDs(ctx, sharesCollection(user.UID, profileID))
	if err != nil {
		return fmt.Errorf("list shares for cascade: %w", err)
	}
	var cascadeErr error
	for _, shareID := range shareIDs {
		if err := e.docs.DeleteDoc(ctx, shareDoc(user.UID, profileID, shareID)); err != nil {
			log.Printf("[engine] cascade delete share %s: %v", shareID, err)
			cascadeErr = err
		}
	}
	if cascadeErr != nil {
		return fmt.Errorf("cascade delete shares: %w", cascadeErr)
	}

	if info != nil {
		kept := make([]string, 0, len(info.ProfilePositions))
		for _, id := range info.ProfilePositions {
			if id != profileID {
				kept = append(kept, id)
			}
		}
		info.ProfilePositions = kept
		if err := e.docs.SetDoc(ctx, generalInfoDoc(user.UID), info.Doc()); err != nil {
			return fmt.Errorf("order index rewrite: %w", err)
		}
	}
	return nil
}

// UpdateAccount writes both account documents and refreshes local state.
func (e *Engine) UpdateAccount(ctx context.Context, accountInfo models.AccountInfo, generalInfo models.PublicGeneralInfo) error {
	user := e.state.User()
	if user == nil {
		return ErrNotSignedIn
	}
	if err := e.docs.SetDoc(ctx, accountDoc(user.UID), accountInfo.Doc()); err != nil {
		return fmt.Errorf("write account info: %w", err)
	}
	if err := e.docs.SetDoc(ctx, generalInfoDoc(user.UID), generalInfo.Doc()); err != nil {
		return fmt.Errorf("write general info: %w", err)
	}
	e.state.SetAccountInfo(&accountInfo)
	e.state.SetGeneralInfo(&generalInfo)
	return nil
}

func (e *Engine) uploadProfilePicture(ctx context.Context, uid string, src models.UploadSource) (string, error) {
	objectPath := "users/" + uid + "/pfps/" + uuid.New().String() + "." + sourceExtension(src)
	url, err := e.blobs.Upload(ctx, objectPath, src, nil)
	if err != nil {
		return "", fmt.Errorf("upload profile picture: %w", err)
	}
	return url, nil
}

func sourceExtension(src models.UploadSource) string {
	switch s := src.(type) {
	case models.FileSource:
		if i := strings.LastIndex(s.Path, "."); i != -1 && i < len(s.Path)-1 {
			return s.Path[i+1:]
		}
		return extFromContentType(s.ContentType)
	case models.BytesSource:
		return extFromContentType(s.ContentType)
	}
	return "bin"
}

func extFromContentType(contentType string) string {
	if i := strings.LastIndex(contentType, "/"); i != -1 && i < len(contentType)-1 {
		return contentType[i+1:]
	}
	return "bin"
}
