package auth

import (
	"context"
	"fmt"
	"sellerLab/domain"
	"sellerLab/pkg/logger"
	"sellerLab/pkg/utils"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// CredentialRepository contract interface
type CredentialRepository interface {
	FindByKeyID(ctx context.Context, keyID string) (domain.APICredential, bool, error)
	Save(ctx context.Context, cred *domain.APICredential) error
}

// TokenRepository contract interface
type TokenRepository interface {
	StoreToken(ctx context.Context, keyID, token, role string, ttl time.Duration) error
	ValidateToken(ctx context.Context, token string) (string, error)
	RevokeToken(ctx context.Context, keyID, token string) error
}

const tokenTTL = 24 * time.Hour

const (
	RoleEditor = "editor"
	RoleAdmin  = "admin"
)

var validRoles = map[string]bool{
	RoleEditor: true,
	RoleAdmin:  true,
}

type authService struct {
	credRepo  CredentialRepository
	tokenRepo TokenRepository
	validate  *validator.Validate
}

func NewAuthService(credRepo CredentialRepository, tokenRepo TokenRepository, validate *validator.Validate) *authService {
	return &authService{
		credRepo:  credRepo,
		tokenRepo: tokenRepo,
		validate:  validate,
	}
}

// Login exchanges an API key pair for a JWT. The token is mirrored into
// Redis so it can be revoked before its expiry.
func (s *authService) Login(ctx context.Context, keyID, secret string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context error: %w", err)
	}

	if err := s.validate.Var(keyID, "required"); err != nil {
		return "", domain.ErrInvalidCredentials
	}

	cred, found, err := s.credRepo.FindByKeyID(ctx, keyID)
	if err != nil {
		logger.Error("Failed to look up credential", err)
		return "", fmt.Errorf("failed to look up credential: %w", err)
	}
	if !found {
		logger.Warn("Login with unknown key id", "key_id", keyID)
		return "", domain.ErrInvalidCredentials
	}

	if !utils.CheckPassword(secret, cred.SecretHash) {
		logger.Warn("Login with wrong secret", "key_id", keyID)
		return "", domain.ErrInvalidCredentials
	}

	token, err := utils.GenerateJWT(cred.KeyID, cred.Role)
	if err != nil {
		logger.Error("Failed to generate token", err)
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	if err := s.tokenRepo.StoreToken(ctx, cred.KeyID, token, cred.Role, tokenTTL); err != nil {
		logger.Error("Failed to store token", err)
		return "", fmt.Errorf("failed to store token: %w", err)
	}

	logger.Info("Issued API token", "key_id", cred.KeyID, "role", cred.Role)
	return token, nil
}

// Validate checks that a presented token is still active in Redis.
func (s *authService) Validate(ctx context.Context, token string) (string, error) {
	keyID, err := s.tokenRepo.ValidateToken(ctx, token)
	if err != nil {
		return "", domain.ErrInvalidCredentials
	}
	return keyID, nil
}

// Logout removes the token from Redis, cutting it off before its JWT expiry.
func (s *authService) Logout(ctx context.Context, keyID, token string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := s.tokenRepo.RevokeToken(ctx, keyID, token); err != nil {
		logger.Error("Failed to revoke token", err)
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	logger.Info("Revoked API token", "key_id", keyID)
	return nil
}

// CreateCredential provisions a new API key pair. The plaintext secret is
// returned exactly once; only its bcrypt hash is stored.
func (s *authService) CreateCredential(ctx context.Context, owner, role string) (domain.APICredential, string, error) {
	if err := ctx.Err(); err != nil {
		return domain.APICredential{}, "", fmt.Errorf("context error: %w", err)
	}

	if err := s.validate.Var(owner, "required"); err != nil {
		return domain.APICredential{}, "", fmt.Errorf("%w: owner is required", domain.ErrInvalidConfiguration)
	}
	if !validRoles[role] {
		return domain.APICredential{}, "", fmt.Errorf("%w: unknown role %q", domain.ErrInvalidConfiguration, role)
	}

	secret := uuid.NewString()
	hash, err := utils.HashPassword(secret)
	if err != nil {
		logger.Error("Failed to hash secret", err)
		return domain.APICredential{}, "", fmt.Errorf("failed to hash secret: %w", err)
	}

	cred := domain.APICredential{
		KeyID:      "ak_" + uuid.NewString(),
		SecretHash: hash,
		Owner:      owner,
		Role:       role,
		CreatedAt:  time.Now(),
	}

	if err := s.credRepo.Save(ctx, &cred); err != nil {
		logger.Error("Failed to save credential", err)
		return domain.APICredential{}, "", fmt.Errorf("failed to save credential: %w", err)
	}

	logger.Info("Created API credential", "key_id", cred.KeyID, "owner", owner, "role", role)
	return cred, secret, nil
}
