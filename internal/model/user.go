package model

// Credentials is the login payload accepted by the remote service.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration is the signup payload accepted by the remote service.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenPair is what a successful login returns.  Access is the bearer
// credential; Refresh can be exchanged for a new Access token.
type TokenPair struct {
	Access   string `json:"access"`
	Refresh  string `json:"refresh,omitempty"`
	UserID   int64  `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}
