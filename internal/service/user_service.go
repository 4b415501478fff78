package service

import (
	"context"
	"errors"

	"go-warehouse-ws/internal/apperror"
	"go-warehouse-ws/internal/model"
	"go-warehouse-ws/internal/permission"
	"go-warehouse-ws/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrEmailExists     = errors.New("email already exists")
	ErrDeleteAdmin     = errors.New("the admin account cannot be deleted")
	ErrDeleteSelf      = errors.New("you cannot delete your own account")
	ErrDeactivateAdmin = errors.New("the admin account cannot be deactivated")
)

type UserService interface {
	CreateUser(ctx context.Context, actor permission.Actor, req *CreateUserRequest) (*model.UserResponse, error)
	UpdateUser(ctx context.Context, actor permission.Actor, id uuid.UUID, req *UpdateUserRequest) (*model.UserResponse, error)
	DeleteUser(ctx context.Context, actor permission.Actor, id uuid.UUID) error
	GetAllUsers(ctx context.Context, actor permission.Actor) ([]model.UserResponse, error)
	GetUserByID(ctx context.Context, actor permission.Actor, id uuid.UUID) (*model.UserResponse, error)
	EnsureAdmin(ctx context.Context, password string) error
	SetPassword(ctx context.Context, email, password string) error
}

type CreateUserRequest struct {
	Email       string            `json:"email" validate:"required,email,max=255"`
	Password    string            `json:"password" validate:"required,min=6"`
	Permissions model.Permissions `json:"permissions"`
}

// UpdateUserRequest replaces the permission flags and optionally flips the
// active flag.
type UpdateUserRequest struct {
	Permissions model.Permissions `json:"permissions"`
	IsActive    *bool             `json:"is_active,omitempty"`
}

type userService struct {
	userRepo repository.UserRepository
	log      *zap.Logger
	opts     Options
}

func NewUserService(userRepo repository.UserRepository, log *zap.Logger, opts Options) UserService {
	return &userService{userRepo: userRepo, log: log.Named("user"), opts: opts.withDefaults()}
}

func (s *userService) response(u *model.User) model.UserResponse {
	return u.ToResponse(permission.IsAdminEmail(u.Email, s.opts.AdminEmail))
}

func (s *userService) CreateUser(ctx context.Context, actor permission.Actor, req *CreateUserRequest) (*model.UserResponse, error) {
	const op = "create user"
	if err := permission.Require(actor, permission.ManageUsers); err != nil {
		return nil, failed(s.log, op, err, zap.String("actor", actor.Email))
	}
	if err := validate(req); err != nil {
		return nil, failed(s.log, op, err)
	}

	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	_, err := s.userRepo.FindByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return nil, failed(s.log, op, apperror.Validationf("EMAIL_EXISTS", ErrEmailExists))
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, failed(s.log, op, err)
	}

	user := &model.User{
		Email:        req.Email,
		Permissions:  req.Permissions,
		IsActive:     true,
		TokenVersion: uuid.NewString(),
	}
	user.CreatedBy = actor.Identifier()
	user.UpdatedBy = actor.Identifier()
	if err := user.SetPassword(req.Password); err != nil {
		return nil, failed(s.log, op, err)
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, failed(s.log, op, err)
	}

	s.log.Info("user created", zap.String("user_id", user.ID.String()), zap.String("actor", actor.Email))
	resp := s.response(user)
	return &resp, nil
}

func (s *userService) UpdateUser(ctx context.Context, actor permission.Actor, id uuid.UUID, req *UpdateUserRequest) (*model.UserResponse, error) {
	const op = "update user"
	if err := permission.Require(actor, permission.ManageUsers); err != nil {
		return nil, failed(s.log, op, err, zap.String("actor", actor.Email))
	}

	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, failed(s.log, op, lookupFailed("user", op, err))
	}
	if req.IsActive != nil && !*req.IsActive && permission.IsAdminEmail(user.Email, s.opts.AdminEmail) {
		return nil, failed(s.log, op, apperror.Validationf("ADMIN_PROTECTED", ErrDeactivateAdmin))
	}

	if err := s.userRepo.UpdatePermissions(ctx, id, req.Permissions); err != nil {
		return nil, failed(s.log, op, err)
	}
	user.Permissions = req.Permissions

	if req.IsActive != nil && *req.IsActive != user.IsActive {
		if err := s.userRepo.SetActive(ctx, id, *req.IsActive); err != nil {
			return nil, failed(s.log, op, err)
		}
		if !*req.IsActive {
			// Deactivation ends any open session.
			if err := s.userRepo.UpdateTokenVersion(ctx, id, uuid.NewString()); err != nil {
				return nil, failed(s.log, op, err)
			}
		}
		user.IsActive = *req.IsActive
	}

	s.log.Info("user updated", zap.String("user_id", id.String()), zap.String("actor", actor.Email))
	resp := s.response(user)
	return &resp, nil
}

func (s *userService) DeleteUser(ctx context.Context, actor permission.Actor, id uuid.UUID) error {
	const op = "delete user"
	if err := permission.Require(actor, permission.ManageUsers); err != nil {
		return failed(s.log, op, err, zap.String("actor", actor.Email))
	}
	if id == actor.ID {
		return failed(s.log, op, apperror.Validationf("SELF_DELETE", ErrDeleteSelf))
	}

	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return failed(s.log, op, lookupFailed("user", op, err))
	}
	if permission.IsAdminEmail(user.Email, s.opts.AdminEmail) {
		return failed(s.log, op, apperror.Validationf("ADMIN_PROTECTED", ErrDeleteAdmin))
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return failed(s.log, op, lookupFailed("user", op, err))
	}

	s.log.Info("user deleted", zap.String("user_id", id.String()), zap.String("actor", actor.Email))
	return nil
}

func (s *userService) GetAllUsers(ctx context.Context, actor permission.Actor) ([]model.UserResponse, error) {
	const op = "list users"
	if err := permission.Require(actor, permission.ManageUsers); err != nil {
		return nil, failed(s.log, op, err, zap.String("actor", actor.Email))
	}

	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, failed(s.log, op, err)
	}
	out := make([]model.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, s.response(&users[i]))
	}
	return out, nil
}

func (s *userService) GetUserByID(ctx context.Context, actor permission.Actor, id uuid.UUID) (*model.UserResponse, error) {
	const op = "get user"
	if err := permission.Require(actor, permission.ManageUsers); err != nil {
		return nil, failed(s.log, op, err, zap.String("actor", actor.Email))
	}

	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, failed(s.log, op, lookupFailed("user", op, err))
	}
	resp := s.response(user)
	return &resp, nil
}

// EnsureAdmin creates the configured admin account on first start. An
// existing account is left alone; without a password nothing is created.
func (s *userService) EnsureAdmin(ctx context.Context, password string) error {
	const op = "seed admin"
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	_, err := s.userRepo.FindByEmail(ctx, s.opts.AdminEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return failed(s.log, op, err)
	}
	if password == "" {
		s.log.Warn("admin account missing and ADMIN_PASSWORD is empty, skipping seed",
			zap.String("email", s.opts.AdminEmail))
		return nil
	}

	admin := &model.User{
		Email:        s.opts.AdminEmail,
		Permissions:  model.AllPermissions(),
		IsActive:     true,
		TokenVersion: uuid.NewString(),
	}
	admin.CreatedBy = permission.System().Identifier()
	admin.UpdatedBy = permission.System().Identifier()
	if err := admin.SetPassword(password); err != nil {
		return failed(s.log, op, err)
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		return failed(s.log, op, err)
	}
	s.log.Info("admin account created", zap.String("email", admin.Email))
	return nil
}

// SetPassword overwrites a password without knowing the old one and ends
// the user's session. It is reserved for operators.
func (s *userService) SetPassword(ctx context.Context, email, password string) error {
	const op = "set password"
	if len(password) < 6 {
		return failed(s.log, op, apperror.Validation("INVALID_INPUT", "password must be at least 6 characters"))
	}

	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return failed(s.log, op, lookupFailed("user", op, err))
	}
	if err := user.SetPassword(password); err != nil {
		return failed(s.log, op, err)
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, user.Password); err != nil {
		return failed(s.log, op, err)
	}
	if err := s.userRepo.UpdateTokenVersion(ctx, user.ID, uuid.NewString()); err != nil {
		return failed(s.log, op, err)
	}
	s.log.Info("password reset", zap.String("user_id", user.ID.String()))
	return nil
}
