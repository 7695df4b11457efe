package wiring

import "context"

// Settings.
func (d Deps) GetSettings(ctx context.Context, keys ...string) (map[string]string, error) {
	return d.repos.Settings.GetSettings(ctx, keys...)
}

// DeleteSetting removes a stored setting so its default applies again.
func (d Deps) DeleteSetting(ctx context.Context, key string) error {
	return d.repos.Settings.DeleteSetting(ctx, key)
}

// SetSettings sets settings to the provided value by delegating to configured services.
func (d Deps) SetSettings(ctx context.Context, values map[string]string) error {
	return d.repos.Settings.SetSettings(ctx, values)
}
