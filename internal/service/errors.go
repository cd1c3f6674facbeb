package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrFollowSelf       = errors.New("cannot follow self")
	ErrAlreadyFollowing = errors.New("already following")
	ErrNotFollowing     = errors.New("not following")
	ErrAlreadyCollected = errors.New("photo already collected")
	ErrNotCollected     = errors.New("photo not collected")
	ErrCommentsDisabled = errors.New("comments are disabled for this photo")
	ErrNotAttached      = errors.New("tag not attached to photo")
	ErrEmptyQuery       = errors.New("empty search query")
	ErrInvalidInput     = errors.New("invalid input")

	ErrStore        = errors.New("store error")
	ErrStoreTimeout = errors.New("store timeout")

	// ErrNotificationDeliveryFailed 只记录日志，不会返回给调用方
	ErrNotificationDeliveryFailed = errors.New("notification delivery failed")

	ErrEmailTaken          = errors.New("email already in use")
	ErrUsernameTaken       = errors.New("username already in use")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidToken        = errors.New("invalid or expired token")
	ErrUnconfirmed         = errors.New("account not confirmed")
	ErrLocked              = errors.New("account is locked")
	ErrAlreadyConfirmed    = errors.New("account already confirmed")
	ErrInvalidNotification = errors.New("invalid notification kind")
)

// storeErr 将 gorm / context 错误归一为服务层错误类型
func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrStoreTimeout, err)
	case isServiceErr(err):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
}

var serviceErrs = []error{
	ErrNotFound, ErrForbidden, ErrFollowSelf, ErrAlreadyFollowing, ErrNotFollowing,
	ErrAlreadyCollected, ErrNotCollected, ErrCommentsDisabled, ErrNotAttached,
	ErrEmptyQuery, ErrInvalidInput, ErrStore, ErrStoreTimeout, ErrEmailTaken, ErrUsernameTaken,
	ErrInvalidCredentials, ErrInvalidToken, ErrUnconfirmed, ErrLocked,
	ErrAlreadyConfirmed, ErrInvalidNotification,
}

func isServiceErr(err error) bool {
	for _, target := range serviceErrs {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
