package models

import "time"

// Роли пользователей
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User представляет пользователя магазина
type User struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	PassHash  []byte    `json:"-"`
	Role      string    `json:"role"` // user или admin
	CreatedAt time.Time `json:"created_at"`
}

// IsAdmin проверяет, есть ли у пользователя права администратора
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
