package models

// User is the identity the auth platform hands back for the current
// session.
type User struct {
	ID    string
	Name  string
	Email string
	Phone string
}
