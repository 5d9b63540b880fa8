package authapi

// Credentials are the primary-factor login inputs.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// User is the authenticated identity as the API reports it.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Organization is the tenant context the user belongs to.
type Organization struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TokenPair carries the short-lived access token and the durable refresh
// token issued together by login, second-factor completion or refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthResult is the success payload of every token-issuing call.
type AuthResult struct {
	User         *User         `json:"user"`
	Organization *Organization `json:"organization,omitempty"`
	Tokens       TokenPair     `json:"tokens"`
}

// Profile is the payload of the profile-fetch endpoints.
type Profile struct {
	User         *User         `json:"user"`
	Organization *Organization `json:"organization,omitempty"`
}

// errorResponse is the wire shape of API error bodies.
type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`

	// Present only on second-factor challenges.
	TempToken string   `json:"temp_token,omitempty"`
	UserID    string   `json:"user_id,omitempty"`
	Methods   []string `json:"methods,omitempty"`
}
