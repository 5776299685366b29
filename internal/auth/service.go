package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Service wires the credential store and token service into the two
// authentication mutations plus per-request identity resolution.
type Service struct {
	users  UserStore
	tokens *TokenService
}

// NewService constructs the auth service.
func NewService(users UserStore, tokens *TokenService) *Service {
	return &Service{users: users, tokens: tokens}
}

// Session is the result of a successful login or registration.
type Session struct {
	Token string
	User  *PublicUser
}

// Register creates a user and logs them in. A taken email is reported as
// ErrEmailTaken; the pre-insert lookup keeps the common case clean and the
// store's unique index covers the race window.
func (s *Service) Register(ctx context.Context, email, password, nom, prenom string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: a password is required", ErrInvalidInput)
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &User{
		Email:        email,
		PasswordHash: hash,
		Nom:          strings.TrimSpace(nom),
		Prenom:       strings.TrimSpace(prenom),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return s.startSession(user)
}

// Login verifies credentials and issues a token. Unknown email and wrong
// password collapse into the same ErrInvalidCredentials so callers cannot
// enumerate accounts.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.startSession(user)
}

// Authenticate resolves a bearer token to a stored user. Verification or
// lookup failure is reported as ErrInvalidToken.
func (s *Service) Authenticate(ctx context.Context, token string) (*User, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) startSession(user *User) (*Session, error) {
	token, _, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: user.PublicView()}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
