package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var _ UserStore = (*PGUserStore)(nil)

// PGUserStore implements UserStore on PostgreSQL.
type PGUserStore struct {
	db *sql.DB
}

func NewPGUserStore(db *sql.DB) *PGUserStore {
	return &PGUserStore{db: db}
}

func (s *PGUserStore) Create(ctx context.Context, u *User) error {
	if u.Role == "" {
		u.Role = "user"
	}
	err := s.db.QueryRowContext(ctx, `
		insert into users(email, password_hash, nom, prenom, role)
		values ($1,$2,$3,$4,$5)
		returning id_user, created_at
	`, u.Email, u.PasswordHash, u.Nom, u.Prenom, u.Role).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		// The unique index on email is the backstop for the check-then-insert
		// race in the registration flow.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

func (s *PGUserStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, `
		select id_user, email, password_hash, nom, prenom, role, created_at
		from users where email = $1
	`, strings.ToLower(strings.TrimSpace(email))))
}

func (s *PGUserStore) FindByID(ctx context.Context, id int64) (*User, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, `
		select id_user, email, password_hash, nom, prenom, role, created_at
		from users where id_user = $1
	`, id))
}

func (s *PGUserStore) scanOne(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Nom, &u.Prenom, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
