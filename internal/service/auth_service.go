package service

import (
	"context"
	"errors"
	"time"

	"go-warehouse-ws/internal/apperror"
	"go-warehouse-ws/internal/model"
	"go-warehouse-ws/internal/permission"
	"go-warehouse-ws/internal/repository"
	"go-warehouse-ws/internal/ws"
	"go-warehouse-ws/pkg/jwt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrSessionTimeout     = errors.New("session expired due to inactivity")
	ErrSessionReplaced    = errors.New("session expired (logged in on another device)")
)

type AuthService interface {
	Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error)
	ResetPassword(ctx context.Context, req *ResetPasswordRequest) error
	ValidateToken(ctx context.Context, tokenString string) (*TokenValidationResponse, error)
	Authenticate(ctx context.Context, tokenString string) (permission.Actor, error)
	Heartbeat(ctx context.Context, actor permission.Actor) error
	Logout(ctx context.Context, actor permission.Actor) error
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

type LoginResponse struct {
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expires_at"`
	User      model.UserResponse `json:"user"`
}

type TokenValidationResponse struct {
	User model.UserResponse `json:"user"`
}

type authService struct {
	userRepo    repository.UserRepository
	tokens      *jwt.Manager
	notifier    ws.Notifier
	log         *zap.Logger
	opts        Options
	idleTimeout time.Duration
}

// NewAuthService wires login and session checks. A positive idleTimeout
// ends sessions that sent no heartbeat for that long.
func NewAuthService(userRepo repository.UserRepository, tokens *jwt.Manager, notifier ws.Notifier, log *zap.Logger, opts Options, idleTimeout time.Duration) AuthService {
	return &authService{
		userRepo:    userRepo,
		tokens:      tokens,
		notifier:    notifier,
		log:         log.Named("auth"),
		opts:        opts.withDefaults(),
		idleTimeout: idleTimeout,
	}
}

func unauthenticated(code string, err error) error {
	return &apperror.Error{Kind: apperror.KindUnauthenticated, Code: code, Message: err.Error(), Err: err}
}

func (s *authService) isAdmin(u *model.User) bool {
	return permission.IsAdminEmail(u.Email, s.opts.AdminEmail)
}

func (s *authService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	const op = "login"
	if err := validate(req); err != nil {
		return nil, failed(s.log, op, err)
	}

	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, failed(s.log, op, unauthenticated("INVALID_CREDENTIALS", ErrInvalidCredentials))
	}
	if err != nil {
		return nil, failed(s.log, op, err)
	}
	if !user.IsActive {
		return nil, failed(s.log, op, unauthenticated("USER_INACTIVE", ErrUserInactive))
	}
	if !user.CheckPassword(req.Password) {
		return nil, failed(s.log, op, unauthenticated("INVALID_CREDENTIALS", ErrInvalidCredentials))
	}

	// A new token version logs out every other session of this user.
	version := uuid.NewString()
	now := s.opts.now()
	if err := s.userRepo.UpdateTokenVersion(ctx, user.ID, version); err != nil {
		return nil, failed(s.log, op, err)
	}
	if err := s.userRepo.UpdateLastSeen(ctx, user.ID, now); err != nil {
		return nil, failed(s.log, op, err)
	}
	user.TokenVersion = version
	user.LastSeenAt = &now

	token, expiresAt, err := s.tokens.GenerateToken(user.ID, user.Email, version)
	if err != nil {
		return nil, failed(s.log, op, err)
	}

	s.log.Info("user logged in", zap.String("user_id", user.ID.String()))
	return &LoginResponse{Token: token, ExpiresAt: expiresAt, User: user.ToResponse(s.isAdmin(user))}, nil
}

func (s *authService) ResetPassword(ctx context.Context, req *ResetPasswordRequest) error {
	const op = "reset password"
	if err := validate(req); err != nil {
		return failed(s.log, op, err)
	}

	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return failed(s.log, op, unauthenticated("INVALID_CREDENTIALS", ErrInvalidCredentials))
	}
	if err != nil {
		return failed(s.log, op, err)
	}
	if !user.CheckPassword(req.OldPassword) {
		return failed(s.log, op, unauthenticated("WRONG_PASSWORD", ErrWrongPassword))
	}
	if err := user.SetPassword(req.NewPassword); err != nil {
		return failed(s.log, op, err)
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, user.Password); err != nil {
		return failed(s.log, op, err)
	}
	if err := s.userRepo.UpdateTokenVersion(ctx, user.ID, uuid.NewString()); err != nil {
		return failed(s.log, op, err)
	}
	s.log.Info("password changed", zap.String("user_id", user.ID.String()))
	return nil
}

// session verifies the token and loads the user behind it, applying the
// single-session and inactivity rules.
func (s *authService) session(ctx context.Context, tokenString string) (*model.User, error) {
	claims, err := s.tokens.ValidateToken(tokenString)
	if err != nil {
		return nil, unauthenticated("INVALID_TOKEN", err)
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Unauthenticated("user not found")
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, unauthenticated("USER_INACTIVE", ErrUserInactive)
	}
	if user.TokenVersion != claims.TokenVersion {
		return nil, unauthenticated("SESSION_REPLACED", ErrSessionReplaced)
	}
	if s.idleTimeout > 0 {
		if user.LastSeenAt == nil || s.opts.now().Sub(*user.LastSeenAt) > s.idleTimeout {
			return nil, unauthenticated("SESSION_TIMEOUT", ErrSessionTimeout)
		}
	}
	return user, nil
}

func (s *authService) ValidateToken(ctx context.Context, tokenString string) (*TokenValidationResponse, error) {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	user, err := s.session(ctx, tokenString)
	if err != nil {
		return nil, failed(s.log, "validate token", err)
	}
	return &TokenValidationResponse{User: user.ToResponse(s.isAdmin(user))}, nil
}

// Authenticate resolves a bearer token into the actor for one request.
func (s *authService) Authenticate(ctx context.Context, tokenString string) (permission.Actor, error) {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	user, err := s.session(ctx, tokenString)
	if err != nil {
		return permission.Actor{}, failed(s.log, "authenticate", err)
	}
	return permission.NewActor(user, s.opts.AdminEmail), nil
}

func (s *authService) Heartbeat(ctx context.Context, actor permission.Actor) error {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	now := s.opts.now()
	if err := s.userRepo.UpdateLastSeen(ctx, actor.ID, now); err != nil {
		return failed(s.log, "heartbeat", lookupFailed("user", "heartbeat", err))
	}

	s.notifier.Publish(ws.Event{
		Type: ws.EventUserPresence,
		Payload: map[string]interface{}{
			"user_id":      actor.ID,
			"email":        actor.Email,
			"status":       "online",
			"last_seen_at": now,
		},
		At: now,
	})
	return nil
}

// Logout rotates the token version so the presented token stops working.
func (s *authService) Logout(ctx context.Context, actor permission.Actor) error {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	if err := s.userRepo.UpdateTokenVersion(ctx, actor.ID, uuid.NewString()); err != nil {
		return failed(s.log, "logout", lookupFailed("user", "logout", err))
	}
	s.notifier.Publish(ws.Event{
		Type:    ws.EventUserPresence,
		Payload: map[string]interface{}{"user_id": actor.ID, "email": actor.Email, "status": "offline"},
		At:      s.opts.now(),
	})
	return nil
}
