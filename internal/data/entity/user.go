package entity

// User is a committed account as seen by the identity directory. Only the
// columns the directory reads are mapped.
type User struct {
	Base
	Email string `db:"email"`
}
