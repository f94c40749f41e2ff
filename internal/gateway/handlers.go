package gateway

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/simpleshare/client/internal/models"
	"github.com/simpleshare/client/internal/remote"
	"github.com/simpleshare/client/internal/services"
)

// Handler exposes the engine's flows to the local UI process.
type Handler struct {
	engine *services.Engine
}

func NewHandler(engine *services.Engine) *Handler {
	return &Handler{engine: engine}
}

type signInRequest struct {
	IDToken string `json:"id_token"`
	// ProviderError is set instead of IDToken when the UI's sign-in popup
	// failed; the provider code is mapped onto the auth error taxonomy.
	ProviderError string `json:"provider_error,omitempty"`
}

func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, NewErrorResponse("Invalid request body"))
		return
	}

	if req.ProviderError != "" {
		authErr := remote.ParseClientAuthCode(req.ProviderError)
		writeJSON(w, http.StatusUnauthorized, NewCodedErrorResponse(string(authErr.Code), authErr.Error()))
		return
	}
	if req.IDToken == "" {
		writeJSON(w, http.StatusBadRequest, NewErrorResponse("Missing id_token"))
		return
	}

	user, err := h.engine.SignIn(r.Context(), req.IDToken)
	if err != nil {
		var authErr *remote.AuthError
		if errors.As(err, &authErr) {
			writeJSON(w, http.StatusUnauthorized, NewCodedErrorResponse(string(authErr.Code), authErr.Error()))
			return
		}
		log.Printf("[gateway] sign in: %v", err)
		writeJSON(w, http.StatusInternalServerError, NewErrorResponse("Sign in failed"))
		return
	}
	writeJSON(w, http.StatusOK, NewSuccessResponse(user))
}

func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.engine.SignOut(r.Context())
	writeJSON(w, http.StatusOK, NewSuccessResponse(nil))
}

func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, NewSuccessResponse(h.engine.State().Snapshot()))
}

func (h *Handler) CheckCompatibility(w http.ResponseWriter, r *http.Request) {
	ok, err := h.engine.CheckCompatibility(r.Context())
	if err != nil {
		log.Printf("[gateway] compatibility check: %v", err)
		writeJSON(w, http.StatusInternalServerError, NewErrorResponse("Compatibility check failed"))
		return
	}
	writeJSON(w, http.StatusOK, NewSuccessResponse(map[string]bool{"compatible": ok}))
}

// pictureRequest describes an optional upload in an API request body: either
// inline base64 bytes or a path to a local file.
type pictureRequest struct {
	Base64      string `json:"base64,omitempty"`
	Path        string `json:"path,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

func (p *pictureRequest) source() (models.UploadSource, error) {
	switch {
	case p == nil:
		return nil, nil
	case p.Base64 != "":
		data, err := base64.StdEncoding.DecodeString(p.Base64)
		if err != nil {
			return nil, err
		}
		return models.BytesSource{Data: data, ContentType: p.ContentType}, nil
	case p.Path != "":
		return models.FileSource{Path: p.Path, ContentType: p.ContentType}, nil
	default:
		return nil, nil
	}
}

type createProfileRequest struct {
	Name    string          `json:"name"`
	PFP     string          `json:"pfp,omitempty"`
	Picture *pictureRequest `json:"picture,omitempty"`
}

func (h *Handler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var req createProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, NewErrorResponse("Invalid request body"))
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, NewErrorResponse("Name is required"))
		return
	}
	src, err := req.Picture.source()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, NewErrorResponse("Invalid picture payload"))
		return
	}

	profileID, err := h.engine.CreateProfile(r.Context(), services.CreateProfileRequest{
		Name:    req.Name,
		PFP:     req.PFP,
		Picture: src,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrProfileNameTaken):
			writeJSON(w, http.StatusConflict, NewErrorResponse("Profile name already in use"))
		case errors.Is(err, services.ErrNotSignedIn):
			writeJSON(w, http.StatusUnauthorized, NewErrorResponse("Not signed in"))
		default:
			log.Printf("[gateway] create profile: %v", err)
			writeJSON(w, http.StatusInternalServerError, NewErrorResponse("Failed to create profile"))
		}
		return
	}
	writeJSON(w, http.StatusCreated, NewSuccessResponse(map[string]string{"id": profileID}))
}

type updateProfileRequest struct {
	Name    string          `json:"name"`
	PFP     string          `json:"pfp,omitempty"`
	Picture *pictureRequest `json:"picture,omitempty"`
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	profileID := chi.URLParam(r, "profileId")
	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, NewErrorResponse("Invalid request body"))
		return
	}
	src, err := req.Picture.source()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, NewErrorResponse("Invalid picture payload"))
		return
	}

	profile := models.Profile{ID: profileID, Name: req.Name, PFP: req.PFP}
	if err := h.engine.UpdateProfile(r.Context(), profile, src); err != nil {
		if errors.Is(err, services.ErrNotSignedIn) {
			writeJSON(w, http.StatusUnauthorized, NewErrorResponse("Not signed in"))
			return
		}
		log.Printf("[gateway] update profile %s: %v", profileID, err)
		writeJSON(w, http.StatusInternalServerError, NewErrorResponse("Failed to update profile"))
		return
	}
	writeJSON(w, http.StatusOK, NewSuccessResponse(nil))
}

func (h *Handler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	profileID := chi.URLParam(r, "profileId")
	if err := h.engine.DeleteProfile(r.Context(), profileID); err != nil {
		switch {
		case errors.Is(err, services.ErrNoAlternateProfile):
			writeJSON(w, http.StatusConflict, NewErrorResponse("Cannot delete the last profile"))
		case errors.Is(err, services.ErrProfileNotFound):
			writeJSON(w, http.StatusNotFound, NewErrorResponse("Profile not found"))
		case errors.Is(err, services.ErrNotSignedIn):
			writeJSON(w, http.StatusUnauthorized, NewErrorResponse("Not signed in"))
		default:
			log.Printf("[gateway] delete profile %s: %v", profileID, err)
			writeJSON(w, http.StatusInternalServerError, NewErrorResponse("Failed to delete profile"))
		}
		return
	}
	writeJSON(w, http.StatusOK, NewSuccessResponse(nil))
}

func (h *Handler) SwitchProfile(w http.ResponseWriter, r *http.Request) {
	profileID := chi.URLParam(r, "profileId")
	if err := h.engine.SwitchProfile(r.Context(), profileID); err != nil {
		if errors.Is(err, services.ErrNotSignedIn) {
			writeJSON(w, http.StatusUnauthorized, NewErrorResponse("Not signed in"))
			return
		}
		log.Printf("[gateway] switch profile %s: %v", profileID, err)
		writeJSON(w, http.StatusInternalServerError, NewErrorResponse("Failed to switch profile"))
		return
	}
	writeJSON(w, http.StatusOK, NewSuccessResponse(nil))
}

type sendShareRequest struct {
	ToPhoneNumber string          `json:"to_phone_number"`
	ToProfileName string          `json:"to_profile_name"`
	TextContent   string          `json:"text_content,omitempty"`
	File          *pictureRequest `json:"file,omitempty"`
}

func (h *Handler) SendShare(w http.ResponseWriter, r *http.Request) {
	var req sendShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, NewErrorResponse("Invalid request body"))
		return
	}
	src, err := req.File.source()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, NewErrorResponse("Invalid file payload"))
		return
	}

	entry, err := h.engine.SendShare(r.Context(), services.SendShareRequest{
		ToPhoneNumber: req.ToPhoneNumber,
		ToProfileName: req.ToProfileName,
		TextContent:   req.TextContent,
		File:          src,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRecipientNotFound):
			writeJSON(w, http.StatusNotFound, NewErrorResponse("Recipient not found"))
		case errors.Is(err, services.ErrRecipientProfileNotFound):
			writeJSON(w, http.StatusNotFound, NewErrorResponse("Recipient profile not found"))
		case errors.Is(err, services.ErrNotSignedIn), errors.Is(err, services.ErrNoProfileSelected):
			writeJSON(w, http.StatusUnauthorized, NewErrorResponse("Not signed in or no profile selected"))
		default:
			log.Printf("[gateway] send share: %v", err)
			writeJSON(w, http.StatusInternalServerError, NewErrorResponse("Failed to send share"))
		}
		return
	}
	writeJSON(w, http.StatusCreated, NewSuccessResponse(entry))
}

func (h *Handler) DeleteShare(w http.ResponseWriter, r *http.Request) {
	shareID := chi.URLParam(r, "shareId")
	share, ok := h.engine.State().ShareByID(shareID)
	if !ok {
		writeJSON(w, http.StatusNotFound, NewErrorResponse("Share not found"))
		return
	}
	if err := h.engine.DeleteShare(r.Context(), share); err != nil {
		log.Printf("[gateway] delete share %s: %v", shareID, err)
		writeJSON(w, http.StatusInternalServerError, NewErrorResponse("Failed to delete share"))
		return
	}
	writeJSON(w, http.StatusOK, NewSuccessResponse(nil))
}

func (h *Handler) ClearOutbox(w http.ResponseWriter, r *http.Request) {
	h.engine.State().ClearOutbox()
	writeJSON(w, http.StatusOK, NewSuccessResponse(nil))
}

type updateAccountRequest struct {
	AccountInfo models.AccountInfo       `json:"account_info"`
	GeneralInfo models.PublicGeneralInfo `json:"general_info"`
}

func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req updateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, NewErrorResponse("Invalid request body"))
		return
	}
	if err := h.engine.UpdateAccount(r.Context(), req.AccountInfo, req.GeneralInfo); err != nil {
		if errors.Is(err, services.ErrNotSignedIn) {
			writeJSON(w, http.StatusUnauthorized, NewErrorResponse("Not signed in"))
			return
		}
		log.Printf("[gateway] update account: %v", err)
		writeJSON(w, http.StatusInternalServerError, NewErrorResponse("Failed to update account"))
		return
	}
	writeJSON(w, http.StatusOK, NewSuccessResponse(nil))
}
