// Package clipboard copies BibTeX to the system clipboard.
package clipboard

import (
	"errors"

	"github.com/atotto/clipboard"
)

// ErrClipboardUnavailable is returned when clipboard access is not available.
var ErrClipboardUnavailable = errors.New("clipboard unavailable (install xclip, xsel or wl-clipboard)")

// Copier copies text to a clipboard.
type Copier interface {
	Copy(text string) error
}

// System writes to the system clipboard.
type System struct{}

// Copy implements Copier.
func (System) Copy(text string) error {
	return Copy(text)
}

var _ Copier = System{}

// IsAvailable reports whether a clipboard backend was found on this system.
func IsAvailable() bool {
	return !clipboard.Unsupported
}

// Copy copies the given text to the system clipboard.
// Returns ErrClipboardUnavailable if clipboard access is not available.
func Copy(text string) error {
	if !IsAvailable() {
		return ErrClipboardUnavailable
	}
	return clipboard.WriteAll(text)
}

// Memory is an in-process Copier, used when no system clipboard exists.
type Memory struct {
	Text string
}

// Copy implements Copier.
func (m *Memory) Copy(text string) error {
	m.Text = text
	return nil
}
