package model

// User — пользователь из user-сервиса.
// PasswordHash непрозрачен для UI: он только передаётся дальше,
// никогда не проверяется локально.
type User struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	PhoneNumber  string `json:"phoneNumber,omitempty"`
	Role         string `json:"role"`
	PasswordHash string `json:"passwordHash,omitempty"`
}

// FullName возвращает отображаемое имя пользователя.
func (u User) FullName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Email
	}
	return u.FirstName + " " + u.LastName
}
