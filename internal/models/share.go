package models

// Share is a single content transfer record addressed to one
// (user, profile) pair. The display-name fields are denormalized copies
// resolved after the base record arrives; they are absent on the wire record
// and merged in by id via ShareEnrichment.
type Share struct {
	ID            string `json:"id"`
	TextContent   string `json:"text_content,omitempty"`
	FileURL       string `json:"file_url,omitempty"`
	FromUID       string `json:"from_uid"`
	FromProfileID string `json:"from_profile_id"`
	ToUID         string `json:"to_uid"`
	ToProfileID   string `json:"to_profile_id"`

	FromDisplayName string `json:"from_display_name,omitempty"`
	FromProfileName string `json:"from_profile_name,omitempty"`
	ToDisplayName   string `json:"to_display_name,omitempty"`
	ToProfileName   string `json:"to_profile_name,omitempty"`
}

// ShareEnrichment carries the asynchronously resolved display fields for one
// share, merged onto the stored record by id.
type ShareEnrichment struct {
	FromDisplayName string `json:"from_display_name"`
	FromProfileName string `json:"from_profile_name"`
}

func ShareFromDoc(id string, data map[string]interface{}) Share {
	text := docString(data, "textContent")
	if text == "" {
		// Legacy records stored the payload under "content".
		text = docString(data, "content")
	}
	return Share{
		ID:            id,
		TextContent:   text,
		FileURL:       docString(data, "fileURL"),
		FromUID:       docString(data, "fromUid"),
		FromProfileID: docString(data, "fromProfileId"),
		ToUID:         docString(data, "toUid"),
		ToProfileID:   docString(data, "toProfileId"),
	}
}

func (s Share) Doc() map[string]interface{} {
	doc := map[string]interface{}{
		"textContent":   s.TextContent,
		"fromUid":       s.FromUID,
		"fromProfileId": s.FromProfileID,
		"toUid":         s.ToUID,
		"toProfileId":   s.ToProfileID,
	}
	if s.FileURL != "" {
		doc["fileURL"] = s.FileURL
	}
	return doc
}

// OutboxEntry is a local, ephemeral send confirmation: the just-sent share
// plus the recipient's resolved display name and profile picture. Never
// persisted remotely.
type OutboxEntry struct {
	Share  Share  `json:"share"`
	PFPURL string `json:"pfp_url"`
}
