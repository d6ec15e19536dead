package domain

// Credential is the stored row for one account. PasswordHash is a bcrypt hash;
// the plaintext password is never persisted.
type Credential struct {
	Username     string
	PasswordHash string
}

// Account is the authenticated identity handed to presentation shells.
type Account struct {
	Username string `json:"username"`
}
