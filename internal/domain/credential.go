package domain

import "time"

// Credential is the decoded session token plus the identity claims it
// carries. It is derived locally from the token payload; the client never
// validates the signature.
type Credential struct {
	Token    string
	ExpireAt int64
	ID       string
	Name     string
	Photo    string
}

// User is the display-facing view of a credential.
type User struct {
	ID    string
	Name  string
	Photo string
}

// User projects the identity claims.
func (c *Credential) User() User {
	return User{ID: c.ID, Name: c.Name, Photo: c.Photo}
}

// IsExpired reports whether the credential has lapsed at the given instant.
// ExpireAt equal to now counts as expired.
func IsExpired(c *Credential, now time.Time) bool {
	if c == nil {
		return true
	}
	return c.ExpireAt <= now.Unix()
}
