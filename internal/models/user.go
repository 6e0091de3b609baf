package models

import "github.com/google/uuid"

// Role - роль пользователя; проверка прав вне ядра, здесь только admin
type Role string

const (
	RoleStudent   Role = "student"
	RoleVolunteer Role = "volunteer"
	RoleAdmin     Role = "admin"
)

// User - проекция пользователя, которая нужна ядру (таблицей владеет другой сервис)
type User struct {
	ID         uuid.UUID `json:"id"`
	Reputation int       `json:"reputation"`
	Blocked    bool      `json:"blocked"`
	Role       Role      `json:"role"`
}

// CanReport - заблокированные и пользователи с отрицательной репутацией не создают инциденты
func (u *User) CanReport() bool {
	return !u.Blocked && u.Reputation >= 0
}

// IsAdmin - административные действия разрешены только по хранимой роли
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Identity - результат проверки bearer-токена. Role - claim токена, права проверяются по User.Role
type Identity struct {
	UserID uuid.UUID
	Role   Role
}
