package model

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Permissions are the stored per-user flags. The configured admin identity
// ignores them and holds every permission.
type Permissions struct {
	CanAddProducts        bool `gorm:"default:false" json:"can_add_products"`
	CanDeleteProducts     bool `gorm:"default:false" json:"can_delete_products"`
	CanManageTransactions bool `gorm:"default:false" json:"can_manage_transactions"`
	CanViewReports        bool `gorm:"default:false" json:"can_view_reports"`
}

// AllPermissions returns a permission set with every flag raised.
func AllPermissions() Permissions {
	return Permissions{
		CanAddProducts:        true,
		CanDeleteProducts:     true,
		CanManageTransactions: true,
		CanViewReports:        true,
	}
}

// User represents an authenticated user in the system
type User struct {
	BaseModel
	Email        string      `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password     string      `gorm:"type:varchar(255);not null" json:"-"`
	Permissions  Permissions `gorm:"embedded;embeddedPrefix:perm_" json:"permissions"`
	IsActive     bool        `gorm:"default:true" json:"is_active"`
	TokenVersion string      `gorm:"type:varchar(255);default:''" json:"-"`
	LastSeenAt   *time.Time  `json:"last_seen_at,omitempty"`
}

// SetPassword hashes and sets the user's password
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword verifies if the provided password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// UserResponse is used for API responses (without sensitive data)
type UserResponse struct {
	ID          uuid.UUID   `json:"id"`
	Email       string      `json:"email"`
	IsAdmin     bool        `json:"is_admin"`
	IsActive    bool        `json:"is_active"`
	Permissions Permissions `json:"permissions"`
	LastSeenAt  *time.Time  `json:"last_seen_at,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// ToResponse converts User to UserResponse. isAdmin is decided by the
// caller, which knows the configured admin address.
func (u *User) ToResponse(isAdmin bool) UserResponse {
	perms := u.Permissions
	if isAdmin {
		perms = AllPermissions()
	}
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		IsAdmin:     isAdmin,
		IsActive:    u.IsActive,
		Permissions: perms,
		LastSeenAt:  u.LastSeenAt,
		CreatedAt:   u.CreatedAt,
	}
}
