package model

import (
	"context"
	"errors"
)

var ErrInvalidAlertWindow = errors.New("expiry alert days must be a non-negative integer")

const (
	ExpiryAlertDaysKey     = "expiryAlertDays"
	DefaultExpiryAlertDays = 7
)

type SettingsRepository interface {
	// Get reports false when the key has never been set.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}
