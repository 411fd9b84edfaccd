package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/gradebench/gradebench-api/internal/models"
)

// UserRepository exposes persistence helpers for user accounts and their
// role profiles.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	CreateStudentProfile(ctx context.Context, profile *models.StudentProfile) error
	CreateInstructorProfile(ctx context.Context, profile *models.InstructorProfile) error
}

// NewUserRepository constructs a GORM-backed user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

type userRepository struct {
	db *gorm.DB
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *userRepository) CreateStudentProfile(ctx context.Context, profile *models.StudentProfile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

func (r *userRepository) CreateInstructorProfile(ctx context.Context, profile *models.InstructorProfile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}
