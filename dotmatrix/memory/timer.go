package memory

import (
	"github.com/marzari/dotmatrix/dotmatrix/addr"
	"github.com/marzari/dotmatrix/dotmatrix/bit"
)

// timaPeriods maps TAC bits 0-1 to the TIMA period in T-cycles.
var timaPeriods = [4]int{1024, 16, 64, 256}

// Timer drives the DIV and TIMA counters. DIV is the upper 8 bits of an
// internal 16-bit counter advanced every T-cycle; TIMA ticks at the rate
// selected by TAC when TAC bit 2 is set, reloading from TMA on overflow.
type Timer struct {
	divCounter  uint16
	timaCounter int

	tima uint8
	tma  uint8
	tac  uint8

	// OnOverflow is called when TIMA overflows, to raise IF bit 2.
	OnOverflow func()
}

// Tick advances the timer by the given number of T-cycles.
func (t *Timer) Tick(cycles int) {
	t.divCounter += uint16(cycles)

	if !bit.IsSet(2, t.tac) {
		return
	}

	period := timaPeriods[t.tac&0x03]
	t.timaCounter += cycles
	for t.timaCounter >= period {
		t.timaCounter -= period
		if t.tima == 0xFF {
			t.tima = t.tma
			if t.OnOverflow != nil {
				t.OnOverflow()
			}
		} else {
			t.tima++
		}
	}
}

func (t *Timer) Read(address uint16) uint8 {
	switch address {
	case addr.DIV:
		return uint8(t.divCounter >> 8)
	case addr.TIMA:
		return t.tima
	case addr.TMA:
		return t.tma
	case addr.TAC:
		return t.tac
	default:
		return 0xFF
	}
}

func (t *Timer) Write(address uint16, value uint8) {
	switch address {
	case addr.DIV:
		// any write resets the whole internal counter
		t.divCounter = 0
		t.timaCounter = 0
	case addr.TIMA:
		t.tima = value
	case addr.TMA:
		t.tma = value
	case addr.TAC:
		t.tac = value
	}
}

// load restores register state from a snapshot without triggering the
// DIV-reset write semantics.
func (t *Timer) load(div, tima, tma, tac uint8) {
	t.divCounter = uint16(div) << 8
	t.timaCounter = 0
	t.tima = tima
	t.tma = tma
	t.tac = tac
}
