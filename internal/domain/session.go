package domain

// Tokens is the credential pair owned by the session. Both halves are stored
// and cleared together.
type Tokens struct {
	AccessToken  string
	RefreshToken string
}

func (t Tokens) Empty() bool {
	return t.AccessToken == "" && t.RefreshToken == ""
}

// AuthResult is the body of a successful login or registration.
type AuthResult struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"`
	User         User   `json:"user"`
}

// RefreshResult is the body of a successful refresh. RefreshToken is only set
// when the backend rotates it.
type RefreshResult struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
}
