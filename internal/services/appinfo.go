package services

import (
	"context"
	"fmt"
)

// Remote schema versions this client understands. The appInfo document is
// bumped server-side when a breaking change ships; an incompatible client
// must update before syncing.
const (
	supportedAppInfoSchemaVersion   = 1
	supportedAuthVersion            = 1
	supportedFirestoreSchemaVersion = 1
	supportedHostingVersion         = 1
	supportedStorageVersion         = 1
)

// CheckCompatibility reports whether the remote schema matches the versions
// this client supports.
func (e *Engine) CheckCompatibility(ctx context.Context) (bool, error) {
	data, found, err := e.docs.GetDoc(ctx, appInfoDocPath)
	if err != nil {
		return false, fmt.Errorf("read app info: %w", err)
	}
	if !found {
		return false, fmt.Errorf("app info document missing")
	}

	versions := map[string]int{
		"appInfoSchemaVersion":   supportedAppInfoSchemaVersion,
		"authVersion":            supportedAuthVersion,
		"firestoreSchemaVersion": supportedFirestoreSchemaVersion,
		"hostingVersion":         supportedHostingVersion,
		"storageVersion":         supportedStorageVersion,
	}
	for field, supported := range versions {
		v, ok := data[field]
		if !ok {
			return false, nil
		}
		if docVersion(v) != supported {
			return false, nil
		}
	}
	return true, nil
}

func docVersion(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return -1
}
