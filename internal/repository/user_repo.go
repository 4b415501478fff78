package repository

import (
	"context"
	"strings"
	"time"

	"go-warehouse-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindAll(ctx context.Context) ([]model.User, error)
	Create(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, hashedPassword string) error
	UpdatePermissions(ctx context.Context, userID uuid.UUID, perms model.Permissions) error
	UpdateTokenVersion(ctx context.Context, userID uuid.UUID, version string) error
	SetActive(ctx context.Context, userID uuid.UUID, active bool) error
	UpdateLastSeen(ctx context.Context, userID uuid.UUID, at time.Time) error
}

type userRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db}
}

// NormalizeEmail is the form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) FindAll(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Order("email ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	user.Email = NormalizeEmail(user.Email)
	return r.db.WithContext(ctx).Create(user).Error
}

// Delete removes the row for good so the address can be registered again.
func (r *userRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Unscoped().Delete(&model.User{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepo) UpdatePassword(ctx context.Context, userID uuid.UUID, hashedPassword string) error {
	return r.update(ctx, userID, map[string]interface{}{"password": hashedPassword})
}

func (r *userRepo) UpdatePermissions(ctx context.Context, userID uuid.UUID, perms model.Permissions) error {
	return r.update(ctx, userID, map[string]interface{}{
		"perm_can_add_products":        perms.CanAddProducts,
		"perm_can_delete_products":     perms.CanDeleteProducts,
		"perm_can_manage_transactions": perms.CanManageTransactions,
		"perm_can_view_reports":        perms.CanViewReports,
	})
}

func (r *userRepo) UpdateTokenVersion(ctx context.Context, userID uuid.UUID, version string) error {
	return r.update(ctx, userID, map[string]interface{}{"token_version": version})
}

func (r *userRepo) SetActive(ctx context.Context, userID uuid.UUID, active bool) error {
	return r.update(ctx, userID, map[string]interface{}{"is_active": active})
}

func (r *userRepo) UpdateLastSeen(ctx context.Context, userID uuid.UUID, at time.Time) error {
	return r.update(ctx, userID, map[string]interface{}{"last_seen_at": at.UTC()})
}

func (r *userRepo) update(ctx context.Context, userID uuid.UUID, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
