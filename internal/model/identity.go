package model

// Identity is the authenticated user of a session, as issued by the remote
// login endpoint.
type Identity struct {
	UserID    string `json:"userId"`
	ClientID  string `json:"clientId"`
	Role      string `json:"role"`
	AuthToken string `json:"authToken"`
}

// LoginRequest represents the request payload for logging in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// IdentityResponse is the public view of an identity; the token is never echoed.
type IdentityResponse struct {
	Authenticated bool   `json:"authenticated"`
	UserID        string `json:"userId,omitempty"`
	ClientID      string `json:"clientId,omitempty"`
	Role          string `json:"role,omitempty"`
}

// LoginResponse represents the response payload of a login. Warning is set
// when the local cart could not be transferred and was kept.
type LoginResponse struct {
	Identity  IdentityResponse   `json:"identity"`
	Migration *MigrationResponse `json:"migration,omitempty"`
	Warning   string             `json:"warning,omitempty"`
}
