package entities

import "slices"

// AuthContext identifies the caller of a lifecycle operation. It is built by
// the transport layer from facts supplied by the CMS.
type AuthContext struct {
	UserID   string
	GroupIDs []string
	IsAdmin  bool
}

// NewAuthContext grants admin capability when any of the caller's groups is
// one of adminGroups.
func NewAuthContext(userID string, groupIDs, adminGroups []string) AuthContext {
	auth := AuthContext{UserID: userID, GroupIDs: groupIDs}
	for _, g := range groupIDs {
		if g != "" && slices.Contains(adminGroups, g) {
			auth.IsAdmin = true
			break
		}
	}
	return auth
}

func (a AuthContext) Authenticated() bool {
	return a.UserID != ""
}
