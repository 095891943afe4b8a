package domain

import "time"

// Role — роль пользователя админки.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// User учётная запись. Пароль хранится только в виде bcrypt-хэша.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	FullName     string
	Email        string
	Role         Role
	Active       bool
}

// HasRole проверяет роль пользователя.
func (u User) HasRole(role Role) bool { return u.Role == role }

// Initials — две буквы для аватара в шапке.
func (u User) Initials() string {
	var letters []rune
	inWord := false
	for _, r := range u.FullName {
		if r == ' ' {
			inWord = false
			continue
		}
		if !inWord {
			letters = append(letters, r)
			inWord = true
			if len(letters) == 2 {
				return string(letters)
			}
		}
	}
	if len(letters) == 1 {
		name := []rune(u.FullName)
		if len(name) >= 2 {
			return string(name[:2])
		}
		return string(name)
	}
	return "??"
}

// Session сессия входа, привязанная к cookie.
type Session struct {
	ID        string
	Username  string
	FullName  string
	Role      Role
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired сообщает, истекла ли сессия к моменту now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// IsAdmin — сокращение для проверки роли ADMIN.
func (s Session) IsAdmin() bool { return s.Role == RoleAdmin }
