package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCredentials covers both unknown accounts and wrong
// passwords so responses don't leak which one failed.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidInput is returned for missing registration fields.
var ErrInvalidInput = errors.New("username, email and password are required")

// PasswordHasher abstracts credential hashing.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenSigner issues access tokens for authenticated accounts.
type TokenSigner interface {
	Issue(username string) (string, error)
}

// Service implements account registration and login.
type Service struct {
	repo   Repository
	hasher PasswordHasher
	signer TokenSigner
}

// NewService wires the account service.
func NewService(repo Repository, hasher PasswordHasher, signer TokenSigner) *Service {
	return &Service{repo: repo, hasher: hasher, signer: signer}
}

// Register creates an account with a hashed password.
func (s *Service) Register(ctx context.Context, username, email, password string) (*User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, ErrInvalidInput
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.repo.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// Login verifies credentials and returns the account with a fresh token.
func (s *Service) Login(ctx context.Context, username, password string) (*User, string, error) {
	account, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, ErrNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}

	if err := s.hasher.Compare(account.PasswordHash, password); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.signer.Issue(account.Username)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return account, token, nil
}
