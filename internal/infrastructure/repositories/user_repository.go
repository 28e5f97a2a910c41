package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/aquadic/souq4u/domain"
)

// UserRepositoryImpl implements domain.UserRepository using GORM
type UserRepositoryImpl struct {
	db *gorm.DB
}

// DBUser represents the database model for User (with GORM tags)
type DBUser struct {
	ID              uint           `gorm:"primaryKey"`
	Name            string         `gorm:"size:255"`
	Email           string         `gorm:"size:255"`
	Phone           string         `gorm:"uniqueIndex:idx_users_phone;size:32"`
	PhoneCountry    string         `gorm:"uniqueIndex:idx_users_phone;size:2"`
	PhoneVerifiedAt *time.Time
	EmailVerifiedAt *time.Time
	Language        string         `gorm:"size:8"`
	IsActive        bool           `gorm:"index"`
	IsBlocked       bool           `gorm:"index"`
	CreatedAt       time.Time      `gorm:"index"`
	UpdatedAt       time.Time
	DeletedAt       gorm.DeletedAt `gorm:"index"`
}

// TableName returns the table name for GORM
func (DBUser) TableName() string {
	return "users"
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *UserRepositoryImpl {
	return &UserRepositoryImpl{db: db}
}

var _ domain.UserRepository = (*UserRepositoryImpl)(nil)

// Create implements domain.UserRepository
func (r *UserRepositoryImpl) Create(ctx context.Context, user *domain.User) error {
	dbUser := r.domainToDB(user)
	if err := r.db.WithContext(ctx).Create(dbUser).Error; err != nil {
		return err
	}
	user.ID = dbUser.ID
	user.CreatedAt = dbUser.CreatedAt
	user.UpdatedAt = dbUser.UpdatedAt
	return nil
}

// FindByPhone implements domain.UserRepository
func (r *UserRepositoryImpl) FindByPhone(ctx context.Context, phone, phoneCountry string) (*domain.User, error) {
	var dbUser DBUser
	err := r.db.WithContext(ctx).Where("phone = ? AND phone_country = ?", phone, phoneCountry).First(&dbUser).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&dbUser), nil
}

// FindByID implements domain.UserRepository
func (r *UserRepositoryImpl) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	var dbUser DBUser
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&dbUser).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&dbUser), nil
}

// MarkPhoneVerified implements domain.UserRepository
func (r *UserRepositoryImpl) MarkPhoneVerified(ctx context.Context, userID uint) error {
	res := r.db.WithContext(ctx).Model(&DBUser{}).
		Where("id = ? AND phone_verified_at IS NULL", userID).
		Update("phone_verified_at", time.Now().UTC())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// either already verified or missing
		if _, err := r.FindByID(ctx, userID); err != nil {
			return err
		}
	}
	return nil
}

// domainToDB converts domain user to database user
func (r *UserRepositoryImpl) domainToDB(user *domain.User) *DBUser {
	return &DBUser{
		ID:              user.ID,
		Name:            user.Name,
		Email:           user.Email,
		Phone:           user.Phone,
		PhoneCountry:    user.PhoneCountry,
		PhoneVerifiedAt: user.PhoneVerifiedAt,
		EmailVerifiedAt: user.EmailVerifiedAt,
		Language:        user.Language,
		IsActive:        user.IsActive,
		IsBlocked:       user.IsBlocked,
	}
}

// dbToDomain converts database user to domain user
func (r *UserRepositoryImpl) dbToDomain(dbUser *DBUser) *domain.User {
	return &domain.User{
		ID:              dbUser.ID,
		Name:            dbUser.Name,
		Email:           dbUser.Email,
		Phone:           dbUser.Phone,
		PhoneCountry:    dbUser.PhoneCountry,
		PhoneVerifiedAt: dbUser.PhoneVerifiedAt,
		EmailVerifiedAt: dbUser.EmailVerifiedAt,
		Language:        dbUser.Language,
		IsActive:        dbUser.IsActive,
		IsBlocked:       dbUser.IsBlocked,
		CreatedAt:       dbUser.CreatedAt,
		UpdatedAt:       dbUser.UpdatedAt,
	}
}
