package models

// LoginRequest represents the request body for user login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents the response body for successful login
type LoginResponse struct {
	Token string `json:"token"`
}

// Employee is an entry of the borrower directory
type Employee struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Session is the credential a logged in user carries between requests.
// ID keys the server side state (drafts, notifications) of the session.
type Session struct {
	ID    string `json:"sid"`
	Token string `json:"token"`
	Email string `json:"email"`
}

// Valid reports whether the session carries a token
func (s Session) Valid() bool {
	return s.Token != ""
}
