package memory

import "github.com/marzari/dotmatrix/dotmatrix/bit"

// Key identifies one of the eight joypad inputs.
type Key uint8

const (
	KeyRight Key = iota
	KeyLeft
	KeyUp
	KeyDown
	KeyA
	KeyB
	KeySelect
	KeyStart
)

// Joypad models the P1 matrix: two 4-bit rows (directions and actions)
// selected by bits 4-5 of the register. Buttons are active low; a key
// press (a 1 to 0 transition in either row) raises the joypad interrupt
// whether or not its row is currently selected.
type Joypad struct {
	directions uint8 // Right, Left, Up, Down in bits 0-3
	actions    uint8 // A, B, Select, Start in bits 0-3
	selection  uint8 // P1 bits 4-5 as last written

	// OnPress is called when any pressed key produces a falling edge.
	OnPress func()
}

// NewJoypad returns a joypad with all keys released.
func NewJoypad() *Joypad {
	return &Joypad{
		directions: 0x0F,
		actions:    0x0F,
		selection:  0x30,
	}
}

// Read assembles the P1 view: bits 6-7 always high, bits 4-5 as written,
// bits 0-3 showing the selected row (active low).
func (j *Joypad) Read() uint8 {
	result := uint8(0xC0) | j.selection

	selectDpad := !bit.IsSet(4, j.selection)
	selectActions := !bit.IsSet(5, j.selection)

	switch {
	case selectDpad && selectActions:
		result |= j.directions & j.actions & 0x0F
	case selectDpad:
		result |= j.directions & 0x0F
	case selectActions:
		result |= j.actions & 0x0F
	default:
		result |= 0x0F
	}

	return result
}

// Write stores the column selection; only bits 4-5 are writable.
func (j *Joypad) Write(value uint8) {
	j.selection = value & 0x30
}

// SetKey records a key press or release, raising the joypad interrupt on
// any new falling edge.
func (j *Joypad) SetKey(key Key, pressed bool) {
	row := &j.directions
	index := uint8(key)
	if key >= KeyA {
		row = &j.actions
		index -= uint8(KeyA)
	}

	if !pressed {
		*row = bit.Set(index, *row)
		return
	}

	wasUp := bit.IsSet(index, *row)
	*row = bit.Reset(index, *row)
	if wasUp && j.OnPress != nil {
		j.OnPress()
	}
}
