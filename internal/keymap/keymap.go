// Package keymap maps global key presses to playback controls. It is
// inert while a text input has focus so typing never hijacks playback,
// and it never consumes keys it does not recognize.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lecternapp/lectern-server/internal/player"
)

// Controller is the slice of the playback controller the key layer
// drives. Bindings call controller operations only, never adapters.
type Controller interface {
	TogglePlay() error
	SeekRelative(deltaSeconds float64) error
	SetVolume(volume float64) error
	ToggleMute() error
	ToggleFullscreen() error
	State() player.State
}

// KeyMap holds the fixed playback bindings.
type KeyMap struct {
	TogglePlay  key.Binding
	SeekBack    key.Binding
	SeekForward key.Binding
	VolumeUp    key.Binding
	VolumeDown  key.Binding
	ToggleMute  key.Binding
	Fullscreen  key.Binding
}

// Default returns the standard bindings.
func Default() KeyMap {
	return KeyMap{
		TogglePlay: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "play/pause"),
		),
		SeekBack: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←", "back 10s"),
		),
		SeekForward: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("→", "forward 10s"),
		),
		VolumeUp: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "volume up"),
		),
		VolumeDown: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "volume down"),
		),
		ToggleMute: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mute"),
		),
		Fullscreen: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "fullscreen"),
		),
	}
}

// Handler dispatches key presses to a controller with configured seek
// and volume steps.
type Handler struct {
	keys       KeyMap
	controller Controller
	seekStep   float64
	volumeStep float64
}

// NewHandler creates a key handler. Zero steps fall back to 10s seeks
// and 0.1 volume increments.
func NewHandler(controller Controller, seekStep, volumeStep float64) *Handler {
	if seekStep <= 0 {
		seekStep = 10
	}
	if volumeStep <= 0 {
		volumeStep = 0.1
	}
	return &Handler{
		keys:       Default(),
		controller: controller,
		seekStep:   seekStep,
		volumeStep: volumeStep,
	}
}

// Keys exposes the bindings for help rendering.
func (h *Handler) Keys() KeyMap {
	return h.keys
}

// Handle dispatches one key press. Returns true when the key was
// consumed. While a text input has focus every key passes through
// untouched, and unrecognized keys are never consumed.
func (h *Handler) Handle(msg tea.KeyMsg, textInputFocused bool) bool {
	if textInputFocused {
		return false
	}

	switch {
	case key.Matches(msg, h.keys.TogglePlay):
		h.dispatch(h.controller.TogglePlay())
	case key.Matches(msg, h.keys.SeekBack):
		h.dispatch(h.controller.SeekRelative(-h.seekStep))
	case key.Matches(msg, h.keys.SeekForward):
		h.dispatch(h.controller.SeekRelative(h.seekStep))
	case key.Matches(msg, h.keys.VolumeUp):
		h.dispatch(h.controller.SetVolume(h.controller.State().Volume + h.volumeStep))
	case key.Matches(msg, h.keys.VolumeDown):
		h.dispatch(h.controller.SetVolume(h.controller.State().Volume - h.volumeStep))
	case key.Matches(msg, h.keys.ToggleMute):
		h.dispatch(h.controller.ToggleMute())
	case key.Matches(msg, h.keys.Fullscreen):
		h.dispatch(h.controller.ToggleFullscreen())
	default:
		return false
	}
	return true
}

// dispatch swallows control errors. A key press against an unavailable
// player is a no-op, not a crash.
func (h *Handler) dispatch(error) {}
