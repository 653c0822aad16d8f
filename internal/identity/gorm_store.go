package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stagegate/stagegate-backend/internal/models"
)

// GormStore implements Store on top of a gorm Postgres connection.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("LOWER(email) = LOWER(?)", email).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

func (s *GormStore) FindUserByID(ctx context.Context, id uuid.UUID, expandAccounts bool) (*models.User, error) {
	var user models.User
	tx := s.db.WithContext(ctx)
	if expandAccounts {
		tx = tx.Preload("Accounts")
	}
	if err := tx.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

func (s *GormStore) FindUserByAccount(ctx context.Context, provider, providerAccountID string) (*models.User, error) {
	var account models.LinkedAccount
	err := s.db.WithContext(ctx).
		Where("provider = ? AND provider_account_id = ?", provider, providerAccountID).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find linked account: %w", err)
	}
	return s.FindUserByID(ctx, account.UserID, true)
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *GormStore) CreateLinkedAccount(ctx context.Context, account *models.LinkedAccount) error {
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	if err := s.db.WithContext(ctx).Create(account).Error; err != nil {
		return fmt.Errorf("create linked account: %w", err)
	}
	return nil
}

func (s *GormStore) UpdateUserRole(ctx context.Context, id uuid.UUID, role models.Role) error {
	result := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("role", role)
	if result.Error != nil {
		return fmt.Errorf("update user role: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) MarkEmailVerified(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("email_verified_at", at)
	if result.Error != nil {
		return fmt.Errorf("mark email verified: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
