package services

// Remote document layout. These paths are stable across client
// implementations and devices.

const (
	accountsCollection = "accounts"
	appInfoDocPath     = "appInfo/appInfo"
)

func accountDoc(uid string) string {
	return "accounts/" + uid
}

func generalInfoDoc(uid string) string {
	return "accounts/" + uid + "/public/GeneralInfo"
}

func profilesCollection(uid string) string {
	return "accounts/" + uid + "/profiles"
}

func profileDoc(uid, profileID string) string {
	return profilesCollection(uid) + "/" + profileID
}

func sharesCollection(uid, profileID string) string {
	return "shares/" + uid + "/" + profileID
}

func shareDoc(uid, profileID, shareID string) string {
	return sharesCollection(uid, profileID) + "/" + shareID
}
