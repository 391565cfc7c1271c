package auth

import (
	"context"
	"errors"

	"aviator_backend/internal/wallet"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPhoneTaken         = errors.New("phone already registered")
)

// Service is the identity collaborator: registration, login and the
// subject -> userId resolution the game endpoints depend on.
type Service struct {
	repo      Repository
	wallets   *wallet.Service
	tokens    *TokenManager
	adminUser string
	adminPass string
}

func NewService(repo Repository, wallets *wallet.Service, tokens *TokenManager, adminUser, adminPass string) *Service {
	return &Service{
		repo:      repo,
		wallets:   wallets,
		tokens:    tokens,
		adminUser: adminUser,
		adminPass: adminPass,
	}
}

// Register creates the user and their (empty) wallet.
func (s *Service) Register(ctx context.Context, phone, password string) error {
	if _, err := s.repo.GetByPhone(ctx, phone); err == nil {
		return ErrPhoneTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	u := &User{Phone: phone, PasswordHash: string(hash)}
	if err := s.repo.Create(ctx, u); err != nil {
		return err
	}

	_, err = s.wallets.CreateWallet(ctx, u.ID)
	return err
}

func (s *Service) Login(ctx context.Context, phone, password string) (string, uint, error) {
	u, err := s.repo.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", 0, ErrInvalidCredentials
		}
		return "", 0, err
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", 0, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(phone, RoleUser)
	if err != nil {
		return "", 0, err
	}
	return token, u.ID, nil
}

// AdminLogin checks the env-configured operator credentials.
func (s *Service) AdminLogin(username, password string) (string, error) {
	if username != s.adminUser || password != s.adminPass {
		return "", ErrInvalidCredentials
	}
	return s.tokens.Issue(username, RoleAdmin)
}

// ResolveUserID maps a verified token subject to the owning user.
func (s *Service) ResolveUserID(ctx context.Context, subject string) (uint, error) {
	u, err := s.repo.GetByPhone(ctx, subject)
	if err != nil {
		return 0, err
	}
	return u.ID, nil
}
