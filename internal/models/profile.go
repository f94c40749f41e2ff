package models

// DefaultAvatarID is the sentinel picture reference used when a profile has
// no uploaded picture. It is never a deletable blob URL.
const DefaultAvatarID = "default"

// Profile is a named content-routing endpoint owned by a user. Profile ids are
// unique within the owning user's profile collection; names are kept unique by
// a query-before-write check, not a stored constraint.
type Profile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	PFP  string `json:"pfp"`
}

func ProfileFromDoc(id string, data map[string]interface{}) Profile {
	pfp := docString(data, "pfp")
	if pfp == "" {
		pfp = DefaultAvatarID
	}
	return Profile{
		ID:   id,
		Name: docString(data, "name"),
		PFP:  pfp,
	}
}

func (p Profile) Doc() map[string]interface{} {
	return map[string]interface{}{
		"name": p.Name,
		"pfp":  p.PFP,
	}
}
