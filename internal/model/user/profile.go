package user

// Profile is the signed-in user as seen by the rest of the system. It is only
// ever built from verified identity claims.
type Profile struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Avatar     string `json:"avatar,omitempty"`
	ExternalID string `json:"externalId,omitempty"`
}
