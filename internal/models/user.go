package models

// User is the signed-in remote identity.
type User struct {
	UID         string `json:"uid"`
	DisplayName string `json:"display_name,omitempty"`
}

// AccountInfo is the private account document at accounts/{uid}.
type AccountInfo struct {
	PhoneNumber       string `json:"phone_number"`
	IsAccountComplete bool   `json:"is_account_complete"`
}

func AccountInfoFromDoc(data map[string]interface{}) AccountInfo {
	return AccountInfo{
		PhoneNumber:       docString(data, "phoneNumber"),
		IsAccountComplete: docBool(data, "isAccountComplete"),
	}
}

func (a AccountInfo) Doc() map[string]interface{} {
	return map[string]interface{}{
		"phoneNumber":       a.PhoneNumber,
		"isAccountComplete": a.IsAccountComplete,
	}
}

// PublicGeneralInfo is the public per-user document at
// accounts/{uid}/public/GeneralInfo. It carries the display name, the default
// profile marker and the cross-device profile ordering index.
type PublicGeneralInfo struct {
	DisplayName      string   `json:"display_name"`
	DefaultProfileID string   `json:"default_profile_id"`
	ProfilePositions []string `json:"profile_positions"`
	IsComplete       bool     `json:"is_complete"`
}

func PublicGeneralInfoFromDoc(data map[string]interface{}) PublicGeneralInfo {
	return PublicGeneralInfo{
		DisplayName:      docString(data, "displayName"),
		DefaultProfileID: docString(data, "defaultProfileId"),
		ProfilePositions: docStringSlice(data, "profilePositions"),
		IsComplete:       docBool(data, "isComplete"),
	}
}

func (g PublicGeneralInfo) Doc() map[string]interface{} {
	positions := make([]interface{}, len(g.ProfilePositions))
	for i, id := range g.ProfilePositions {
		positions[i] = id
	}
	return map[string]interface{}{
		"displayName":      g.DisplayName,
		"defaultProfileId": g.DefaultProfileID,
		"profilePositions": positions,
		"isComplete":       g.IsComplete,
	}
}

const (
	MinDisplayNameLength = 2
	MaxDisplayNameLength = 50
)

// IsGeneralInfoComplete reports whether the general info document describes a
// fully set up account.
func IsGeneralInfoComplete(g PublicGeneralInfo) bool {
	return g.IsComplete &&
		len(g.DisplayName) >= MinDisplayNameLength &&
		len(g.DisplayName) <= MaxDisplayNameLength
}
