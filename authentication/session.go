package authentication

import "time"

// NewSession returns an empty session bound to the signing key
func NewSession(secretKey []byte) *Session {
	return &Session{SecretKey: secretKey}
}

// Start binds the session to user and issues its token
func (s *Session) Start(user *User, client Client, ttl time.Duration) error {
	s.AssignID()
	s.User = user
	s.UserID = user.ID
	s.UpdateLastUsed(client)
	return s.createToken(ttl)
}
