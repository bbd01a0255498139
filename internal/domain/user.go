package domain

import "time"

// AccessAuth is the access tag attached to tokens issued at login/registration.
const AccessAuth = "auth"

// User represents an authenticated user of the system.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Tokens       []Token
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Token is one issued session token held by a user.
type Token struct {
	Access string
	Token  string
}

// HasToken reports whether token is among the user's current tokens.
func (u *User) HasToken(token string) bool {
	for _, t := range u.Tokens {
		if t.Token == token {
			return true
		}
	}
	return false
}
