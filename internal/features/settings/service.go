package settings

import "context"

// Store is the key/value persistence the settings service needs.
type Store interface {
	GetSettings(ctx context.Context, keys ...string) (map[string]string, error)
	SetSettings(ctx context.Context, values map[string]string) error
	DeleteSetting(ctx context.Context, key string) error
}

// Service reads and writes operator settings with defaults.
type Service struct {
	store Store
}

func NewService(store Store) Service {
	return Service{store: store}
}
