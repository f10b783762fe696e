// Package tui provides terminal user interface components for forage-ports.
//
// This package uses the Bubble Tea framework for the interactive lease
// picker behind "forage-ports release --pick".
//
// # Lease Picker
//
// The picker displays live leases grouped by label and returns the chosen
// action:
//
//	result, err := tui.RunPicker(leases, time.Now())
//	switch result.Action {
//	case tui.ActionRelease:
//	    // Release result.Lease
//	case tui.ActionRenew:
//	    // Renew result.Lease
//	case tui.ActionQuit:
//	    // Exit
//	}
//
// # Picker Features
//
//   - Lists leases grouped by label, unlabelled leases last
//   - Keyboard navigation (j/k or arrows), headers auto-skipped
//   - Quick actions: Enter/d (release), r (renew), q (quit)
//   - Remaining lease time, highlighted when close to expiry
//
// # Dependencies
//
// Uses the Charm libraries:
//   - github.com/charmbracelet/bubbletea - TUI framework
//   - github.com/charmbracelet/bubbles - UI components
//   - github.com/charmbracelet/lipgloss - Styling
package tui
