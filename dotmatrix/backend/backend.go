// Package backend defines the host seam: frame presentation and input
// event delivery. The core calls Present synchronously when the PPU
// latches a frame and drains a snapshot of events once per frame.
package backend

import (
	"github.com/marzari/dotmatrix/dotmatrix/memory"
	"github.com/marzari/dotmatrix/dotmatrix/video"
)

// EventType classifies a host event.
type EventType int

const (
	// EventKey is a joypad key transition.
	EventKey EventType = iota
	// EventSave requests a quick save.
	EventSave
	// EventLoad requests a quick load.
	EventLoad
	// EventFastForward toggles the speed multiplier.
	EventFastForward
	// EventQuit terminates the machine loop.
	EventQuit
	// EventQuitAndSave saves before terminating.
	EventQuitAndSave
)

// Event is one host input event.
type Event struct {
	Type    EventType
	Key     memory.Key
	Pressed bool
}

// Config holds host presentation settings.
type Config struct {
	Title string
	Scale int
}

// Backend is a complete host: rendering plus input.
//
// Key bindings every backend implements:
// W/A/S/D move, J/K are A/B, T is Select, Enter is Start, Q quick-saves,
// Y quick-loads, L toggles fast-forward, Esc quits, P saves then quits.
type Backend interface {
	// Init prepares the host surface.
	Init(config Config) error

	// PollEvents drains the pending host events.
	PollEvents() []Event

	// Present shows a completed frame.
	Present(frame *video.FrameBuffer) error

	// Cleanup releases host resources.
	Cleanup() error
}
