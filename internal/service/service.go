package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-warehouse-ws/internal/apperror"
	"go-warehouse-ws/internal/lock"
	"go-warehouse-ws/internal/permission"
	"go-warehouse-ws/pkg/validator"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultTimeout = 10 * time.Second
	inflightTTL    = 30 * time.Second
)

// Options are the settings shared by every service.
type Options struct {
	Timeout    time.Duration
	Location   *time.Location
	Now        func() time.Time
	AdminEmail string
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// now is the service clock in UTC, the zone every timestamp is stored in.
func (o Options) now() time.Time {
	return o.Now().UTC()
}

func (o Options) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, o.Timeout)
}

func validationFailed(errs []*validator.ErrorResponse) error {
	first := errs[0]
	return apperror.Validation("INVALID_INPUT",
		fmt.Sprintf("Validation failed: Field '%s' failed on tag '%s'", first.FailedField, first.Tag))
}

func validate(req interface{}) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return validationFailed(errs)
	}
	return nil
}

// lookupFailed maps a single-row read error: a missing row is NotFound,
// anything else a storage failure.
func lookupFailed(what, op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(what)
	}
	return apperror.Storage(op, err)
}

// asAppError passes service errors through and wraps the rest as storage
// failures.
func asAppError(op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.Storage(op, err)
}

// guard rejects a second identical submission from the same actor while the
// first is still running. target names the submission; requests that differ
// in any part of it do not block each other. The returned func releases the
// hold.
func guard(ctx context.Context, locker lock.Locker, actor permission.Actor, action permission.Action, target ...string) (func(), error) {
	key := lock.Key(append([]string{"inflight", actor.Identifier(), string(action)}, target...)...)
	held, err := locker.Obtain(ctx, key, inflightTTL)
	if errors.Is(err, lock.ErrNotObtained) {
		return nil, apperror.Validation("DUPLICATE_SUBMISSION", "an identical request is already being processed")
	}
	if err != nil {
		return nil, apperror.Storage("obtain in-flight lock", err)
	}
	return func() {
		_ = held.Release(context.WithoutCancel(ctx))
	}, nil
}

// failed wraps err for the caller and logs it: storage failures at error
// level, everything the caller caused at debug.
func failed(log *zap.Logger, op string, err error, fields ...zap.Field) error {
	err = asAppError(op, err)
	fields = append(fields, zap.String("op", op), zap.Error(err))
	if apperror.IsStorage(err) {
		log.Error("storage failure", fields...)
	} else {
		log.Debug("request rejected", fields...)
	}
	return err
}
