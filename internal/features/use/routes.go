package use

import "gatehouse/internal/features/shell"

// Guarded wraps the page so only admitted sessions reach it; others go to entry.
func (h Handler) Guarded(admit shell.Admitter, entry string) shell.Page {
	return shell.Protected(admit, shell.RedirectToEntry(entry), h.Page())
}
