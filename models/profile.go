package models

// Profile is the core-service profile of the signed-in writer
type Profile struct {
	ID              string `json:"id,omitempty"`
	UserID          string `json:"user_id,omitempty"`
	ClerkID         string `json:"clerk_id,omitempty"`
	AnonymousHandle string `json:"anonymous_handle"`
}

// Identifier returns the user id used by the messaging service
func (p Profile) Identifier() string {
	if p.UserID != "" {
		return p.UserID
	}
	return p.ID
}

// ProfileSyncRequest is the body of POST /profiles/ on the core service
type ProfileSyncRequest struct {
	ClerkID         string `json:"clerk_id"`
	AnonymousHandle string `json:"anonymous_handle,omitempty"`
}
