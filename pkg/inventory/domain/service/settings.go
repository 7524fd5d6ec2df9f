package service

import (
	"context"
	"strconv"
	"strings"

	"stockly/pkg/inventory/domain/model"
)

type AlertWindowProvider interface {
	AlertWindow(ctx context.Context) (int, error)
}

// NewSettingsAlertWindow reads expiryAlertDays from settings on every call.
func NewSettingsAlertWindow(settings model.SettingsRepository) AlertWindowProvider {
	return &settingsAlertWindow{settings: settings}
}

type settingsAlertWindow struct {
	settings model.SettingsRepository
}

func (s *settingsAlertWindow) AlertWindow(ctx context.Context) (int, error) {
	raw, ok, err := s.settings.Get(ctx, model.ExpiryAlertDaysKey)
	if err != nil {
		return 0, err
	}
	if !ok {
		return model.DefaultExpiryAlertDays, nil
	}
	return ParseAlertWindow(raw), nil
}

// ParseAlertWindow falls back to the default for anything that is not a
// non-negative integer.
func ParseAlertWindow(raw string) int {
	days, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || days < 0 {
		return model.DefaultExpiryAlertDays
	}
	return days
}

// FixedAlertWindow always reports the same window.
type FixedAlertWindow int

func (w FixedAlertWindow) AlertWindow(context.Context) (int, error) { return int(w), nil }
