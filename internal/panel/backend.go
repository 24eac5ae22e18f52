// Package panel renders the per-player status panel and drives the footer
// animation shared by every panel on the server.
package panel

import "errors"

// ErrGone is returned by a Backend when the handle or the connection behind
// it no longer exists. Panels treat it as an expected teardown race.
var ErrGone = errors.New("panel: handle gone")

// Handle identifies a panel on the rendering backend.
type Handle string

// Backend pushes panel content to a player's client. Every method may fail;
// failures on a torn-down handle must be reported as ErrGone.
type Backend interface {
	CreatePanel(owner string) (Handle, error)
	SetTitle(h Handle, title string) error
	SetLines(h Handle, lines []string) error
	UpdateLine(h Handle, index int, text string) error
	// Destroy releases the handle. Destroying an unknown handle is not an
	// error.
	Destroy(h Handle) error
}
