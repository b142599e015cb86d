package repositories

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/bytekstore/bytek/app/models"
	"github.com/bytekstore/bytek/pkg/orm"
	"github.com/bytekstore/bytek/pkg/rbac"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository handles database operations for back-office users.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail looks up a user by email, case-insensitively.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if orm.NotFound(err) {
		return user, ErrUserNotFound
	}
	return user, err
}

// FindByID looks up a user by primary key.
func (r *UserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if orm.NotFound(err) {
		return user, ErrUserNotFound
	}
	return user, err
}

// FirstAdmin returns the oldest admin account.
func (r *UserRepository) FirstAdmin(ctx context.Context) (models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("role = ?", rbac.RoleAdmin).Order("created_at ASC").First(&user).Error
	if orm.NotFound(err) {
		return user, ErrUserNotFound
	}
	return user, err
}

// Create persists a new user. Email is stored lower-cased.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	return r.db.WithContext(ctx).Create(user).Error
}

// Update persists changes to an existing user.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}
