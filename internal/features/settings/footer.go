package settings

import (
	"context"
	"strings"
)

const footerMarkdownKey = "footer_markdown"

// FooterSettings controls the note rendered in the persistent footer.
type FooterSettings struct {
	Markdown string
}

// FooterSettings returns the stored footer note, or fallback when none is stored or the store fails.
func (s Service) FooterSettings(ctx context.Context, fallback string) FooterSettings {
	settings := FooterSettings{Markdown: fallback}
	values, err := s.store.GetSettings(ctx, footerMarkdownKey)
	if err != nil {
		return settings
	}
	if value, ok := values[footerMarkdownKey]; ok && strings.TrimSpace(value) != "" {
		settings.Markdown = value
	}
	return settings
}

// SaveFooterSettings stores the footer note. An empty note restores the configured default.
func (s Service) SaveFooterSettings(ctx context.Context, settings FooterSettings) error {
	note := strings.TrimSpace(settings.Markdown)
	if note == "" {
		return s.store.DeleteSetting(ctx, footerMarkdownKey)
	}
	return s.store.SetSettings(ctx, map[string]string{footerMarkdownKey: note})
}
