package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/vladislavdragonenkov/procurement-admin/internal/domain"
)

// CredentialStore хранит учётные записи админки в таблице admin_users.
type CredentialStore struct {
	db *sql.DB
}

// NewCredentialStore создаёт PostgreSQL-хранилище учётных записей.
func NewCredentialStore(store *Store) *CredentialStore {
	return &CredentialStore{db: store.DB()}
}

// Lookup ищет пользователя без учёта регистра имени.
func (s *CredentialStore) Lookup(ctx context.Context, username string) (domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var (
		user domain.User
		role string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, full_name, email, role, active
		FROM admin_users
		WHERE LOWER(username) = LOWER($1)
	`, strings.TrimSpace(username)).Scan(
		&user.ID, &user.Username, &user.PasswordHash, &user.FullName, &user.Email, &role, &user.Active,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.NewNotFoundError("user", username)
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}
	user.Role = domain.Role(role)
	return user, nil
}

// UpsertUser создаёт или обновляет пользователя; пароль сохраняется как bcrypt-хэш.
func (s *CredentialStore) UpsertUser(ctx context.Context, user domain.User, password string) (domain.User, error) {
	user.Username = strings.TrimSpace(user.Username)
	if user.Username == "" {
		return domain.User{}, &domain.ValidationError{Field: "username", Message: "username is required"}
	}
	if password == "" {
		return domain.User{}, &domain.ValidationError{Field: "password", Message: "password is required"}
	}
	if user.Role == "" {
		user.Role = domain.RoleUser
	}
	if user.Role != domain.RoleAdmin && user.Role != domain.RoleUser {
		return domain.User{}, &domain.ValidationError{Field: "role", Message: "unknown role " + string(user.Role)}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hash)

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO admin_users (username, password_hash, full_name, email, role, active)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (LOWER(username)) DO UPDATE SET
			password_hash = EXCLUDED.password_hash,
			full_name = EXCLUDED.full_name,
			email = EXCLUDED.email,
			role = EXCLUDED.role,
			active = EXCLUDED.active,
			updated_at = NOW()
		RETURNING id
	`, user.Username, user.PasswordHash, user.FullName, user.Email, string(user.Role), user.Active).Scan(&user.ID)
	if err != nil {
		return domain.User{}, fmt.Errorf("upsert user: %w", err)
	}
	return user, nil
}

var _ domain.CredentialStore = (*CredentialStore)(nil)
