package postgres

import (
	"context"
	"errors"
	"fmt"
	"sellerLab/business/auth"
	"sellerLab/domain"

	"gorm.io/gorm"
)

type CredentialRepository struct {
	DB *gorm.DB
}

var _ auth.CredentialRepository = (*CredentialRepository)(nil)

func NewCredentialRepository(db *gorm.DB) *CredentialRepository {
	return &CredentialRepository{DB: db}
}

func (r *CredentialRepository) Save(ctx context.Context, cred *domain.APICredential) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Create(cred).Error; err != nil {
		return fmt.Errorf("failed to insert credential: %w", err)
	}

	return nil
}

func (r *CredentialRepository) FindByKeyID(ctx context.Context, keyID string) (domain.APICredential, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.APICredential{}, false, fmt.Errorf("context error: %w", err)
	}

	var cred domain.APICredential
	err := r.DB.WithContext(ctx).Where("key_id = ?", keyID).First(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.APICredential{}, false, nil
	}
	if err != nil {
		return domain.APICredential{}, false, fmt.Errorf("failed to query credential: %w", err)
	}

	return cred, true, nil
}
