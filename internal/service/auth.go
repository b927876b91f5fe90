package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"rationdesk/internal/model"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAdminNotFound      = errors.New("admin not found")
)

const uniqueViolation = "23505"

type AuthService struct {
	db *sql.DB
}

func NewAuthService(db *sql.DB) *AuthService {
	return &AuthService{db: db}
}

func (s *AuthService) Register(ctx context.Context, email, password, fullName string) (*model.Admin, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	query := `INSERT INTO admins (email, full_name, password_hash) VALUES ($1, $2, $3) RETURNING id, email, full_name, role, created_at`
	row := s.db.QueryRowContext(ctx, query, email, fullName, hash)

	var admin model.Admin
	if err := row.Scan(&admin.ID, &admin.Email, &admin.FullName, &admin.Role, &admin.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert admin: %w", err)
	}
	admin.PasswordHash = hash

	return &admin, nil
}

func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*model.Admin, error) {
	query := `SELECT id, email, full_name, role, password_hash, created_at FROM admins WHERE email = $1`
	row := s.db.QueryRowContext(ctx, query, email)

	var admin model.Admin
	if err := row.Scan(&admin.ID, &admin.Email, &admin.FullName, &admin.Role, &admin.PasswordHash, &admin.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get admin: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(admin.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &admin, nil
}

func (s *AuthService) Get(ctx context.Context, id string) (*model.Admin, error) {
	var admin model.Admin
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, full_name, role, created_at FROM admins WHERE id = $1`, id,
	).Scan(&admin.ID, &admin.Email, &admin.FullName, &admin.Role, &admin.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("get admin: %w", err)
	}
	return &admin, nil
}

// GrantRole sets the role of the account registered under email.
func (s *AuthService) GrantRole(ctx context.Context, email, role string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE admins SET role = $1 WHERE email = $2`, role, email)
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrAdminNotFound
	}
	return nil
}
