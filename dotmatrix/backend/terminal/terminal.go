// Package terminal renders the frame into a tcell screen, two pixels per
// character cell. It is the default backend: no cgo, works everywhere a
// terminal does.
package terminal

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/marzari/dotmatrix/dotmatrix/backend"
	"github.com/marzari/dotmatrix/dotmatrix/memory"
	"github.com/marzari/dotmatrix/dotmatrix/video"
)

// keyTimeout releases a key that stopped repeating. Terminals only report
// presses, so releases are synthesized from key-repeat gaps.
const keyTimeout = 100 * time.Millisecond

// shadeColors maps the four DMG shades to terminal colors.
var shadeColors = [4]tcell.Color{
	tcell.NewRGBColor(0xFF, 0xFF, 0xFF),
	tcell.NewRGBColor(0x98, 0x98, 0x98),
	tcell.NewRGBColor(0x4C, 0x4C, 0x4C),
	tcell.NewRGBColor(0x00, 0x00, 0x00),
}

// Backend implements backend.Backend on a tcell screen.
type Backend struct {
	screen tcell.Screen

	heldKeys map[memory.Key]time.Time
	pending  []backend.Event
}

// New creates a terminal backend.
func New() *Backend {
	return &Backend{
		heldKeys: make(map[memory.Key]time.Time),
	}
}

func (t *Backend) Init(config backend.Config) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating terminal screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing terminal screen: %w", err)
	}

	screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack))
	screen.Clear()
	t.screen = screen
	return nil
}

func (t *Backend) PollEvents() []backend.Event {
	t.pending = t.pending[:0]

	for t.screen.HasPendingEvent() {
		event := t.screen.PollEvent()
		key, ok := event.(*tcell.EventKey)
		if !ok {
			continue
		}
		t.translateKey(key)
	}

	// synthesize releases for keys whose repeats stopped
	now := time.Now()
	for key, last := range t.heldKeys {
		if now.Sub(last) > keyTimeout {
			delete(t.heldKeys, key)
			t.pending = append(t.pending, backend.Event{Type: backend.EventKey, Key: key})
		}
	}

	return t.pending
}

func (t *Backend) translateKey(event *tcell.EventKey) {
	switch event.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		t.pending = append(t.pending, backend.Event{Type: backend.EventQuit})
		return
	case tcell.KeyEnter:
		t.press(memory.KeyStart)
		return
	}

	switch event.Rune() {
	case 'w', 'W':
		t.press(memory.KeyUp)
	case 'a', 'A':
		t.press(memory.KeyLeft)
	case 's', 'S':
		t.press(memory.KeyDown)
	case 'd', 'D':
		t.press(memory.KeyRight)
	case 'j', 'J':
		t.press(memory.KeyA)
	case 'k', 'K':
		t.press(memory.KeyB)
	case 't', 'T':
		t.press(memory.KeySelect)
	case 'q', 'Q':
		t.pending = append(t.pending, backend.Event{Type: backend.EventSave})
	case 'y', 'Y':
		t.pending = append(t.pending, backend.Event{Type: backend.EventLoad})
	case 'l', 'L':
		t.pending = append(t.pending, backend.Event{Type: backend.EventFastForward})
	case 'p', 'P':
		t.pending = append(t.pending, backend.Event{Type: backend.EventQuitAndSave})
	}
}

func (t *Backend) press(key memory.Key) {
	if _, held := t.heldKeys[key]; !held {
		t.pending = append(t.pending, backend.Event{Type: backend.EventKey, Key: key, Pressed: true})
	}
	t.heldKeys[key] = time.Now()
}

// Present draws the frame using upper-half-block characters, packing two
// scanlines into every terminal row.
func (t *Backend) Present(frame *video.FrameBuffer) error {
	for y := 0; y < video.FramebufferHeight; y += 2 {
		for x := 0; x < video.FramebufferWidth; x++ {
			top := shadeColors[frame.GetPixel(x, y)]
			bottom := shadeColors[frame.GetPixel(x, y+1)]
			style := tcell.StyleDefault.Foreground(top).Background(bottom)
			t.screen.SetContent(x, y/2, '▀', nil, style)
		}
	}
	t.screen.Show()
	return nil
}

func (t *Backend) Cleanup() error {
	if t.screen != nil {
		t.screen.Fini()
	}
	return nil
}
