package model

type User struct {
	ID       string
	Name     string
	UserName string
}

// Handle returns the user name with a leading "@".
func (u User) Handle() string {
	return "@" + u.UserName
}

// Is reports whether both values refer to the same account. Only the ID is
// compared since names can change.
func (u User) Is(other User) bool {
	return u.ID != "" && u.ID == other.ID
}
