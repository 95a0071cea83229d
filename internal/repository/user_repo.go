package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/fittrack/internal/db"
)

// UserRepository provides data access for users created by OTP onboarding.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// GetByID returns gorm.ErrRecordNotFound when the user does not exist.
func (r *UserRepository) GetByID(ctx context.Context, id uint64) (*db.User, error) {
	var u db.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// UpsertVerified marks the phone number as verified and active, creating
// the user when it does not exist yet, and stamps the login time.
func (r *UserRepository) UpsertVerified(ctx context.Context, phone string, at time.Time) (*db.User, error) {
	u := db.User{PhoneNumber: phone, IsPhoneVerified: true, Active: true, LastLoginAt: &at}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "phone_number"}},
			DoUpdates: clause.AssignmentColumns([]string{"is_phone_verified", "active", "last_login_at", "updated_at"}),
		}).
		Create(&u).Error
	if err != nil {
		return nil, err
	}

	// the upsert does not report the existing id on every driver
	var out db.User
	if err := r.db.WithContext(ctx).Where("phone_number = ?", phone).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}
