package settings

import "context"

// Repository persists operator settings as key/value pairs.
// A key that was never set or was deleted is absent from GetSettings results.
type Repository interface {
	GetSettings(ctx context.Context, keys ...string) (map[string]string, error)
	SetSettings(ctx context.Context, values map[string]string) error
	DeleteSetting(ctx context.Context, key string) error
}
