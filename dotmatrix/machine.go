// Package dotmatrix wires the DMG components together: the CPU executes
// one instruction, reports its T-cycle cost, and the PPU and timer advance
// by that many cycles. Interrupts raised along the way are serviced by the
// CPU at its next step boundary.
package dotmatrix

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/marzari/dotmatrix/dotmatrix/backend"
	"github.com/marzari/dotmatrix/dotmatrix/cpu"
	"github.com/marzari/dotmatrix/dotmatrix/memory"
	"github.com/marzari/dotmatrix/dotmatrix/timing"
	"github.com/marzari/dotmatrix/dotmatrix/video"
)

// DMG is the machine: one cartridge, one bus, one CPU, one PPU.
type DMG struct {
	cpu *cpu.CPU
	ppu *video.PPU
	mmu *memory.MMU

	fastForward bool
	frameCount  uint64
}

// New powers on a machine with an empty cartridge. Useful for tests.
func New() *DMG {
	return newWithMMU(memory.New())
}

// NewWithCartridge powers on a machine with the given cartridge.
func NewWithCartridge(cart *memory.Cartridge) *DMG {
	return newWithMMU(memory.NewWithCartridge(cart))
}

// NewWithFile loads and validates a ROM file and powers on. Validation
// failures are fatal-load errors: the machine refuses to power on.
func NewWithFile(path string) (*DMG, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ROM: %w", err)
	}

	cart, err := memory.NewCartridgeWithData(data)
	if err != nil {
		return nil, fmt.Errorf("loading cartridge: %w", err)
	}

	slog.Info("loaded cartridge", "title", cart.Title(), "bytes", len(data))
	return NewWithCartridge(cart), nil
}

func newWithMMU(mmu *memory.MMU) *DMG {
	d := &DMG{mmu: mmu}
	d.cpu = cpu.New(mmu)
	d.ppu = video.New(mmu)
	return d
}

// Tick runs one CPU step and advances the PPU and timer by the resulting
// T-cycle delta. Interrupts raised here are visible to the next step.
func (d *DMG) Tick() int {
	cycles := d.cpu.Step()
	d.ppu.Step(cycles)
	d.mmu.TickTimer(cycles)
	return cycles
}

// RunUntilFrame ticks until the PPU latches a complete frame.
func (d *DMG) RunUntilFrame() {
	for !d.ppu.FrameReady() {
		d.Tick()
	}
	d.ppu.ConsumeFrame()
	d.frameCount++
}

// Framebuffer exposes the current frame.
func (d *DMG) Framebuffer() *video.FrameBuffer {
	return d.ppu.Framebuffer()
}

// FrameCount returns the number of frames completed.
func (d *DMG) FrameCount() uint64 {
	return d.frameCount
}

// CPU exposes the processor, mainly for tests and debug output.
func (d *DMG) CPU() *cpu.CPU {
	return d.cpu
}

// PPU exposes the pixel processing unit.
func (d *DMG) PPU() *video.PPU {
	return d.ppu
}

// Memory exposes the bus.
func (d *DMG) Memory() *memory.MMU {
	return d.mmu
}

// HandleKey feeds one joypad transition into the latch.
func (d *DMG) HandleKey(key memory.Key, pressed bool) {
	d.mmu.Joypad().SetKey(key, pressed)
}

// Run drives the machine against a host backend until it requests
// shutdown. Save and load failures are transient: they are logged and
// execution continues.
func (d *DMG) Run(b backend.Backend) error {
	limiter := timing.NewFrameLimiter()

	for {
		d.RunUntilFrame()

		if err := b.Present(d.Framebuffer()); err != nil {
			return fmt.Errorf("presenting frame: %w", err)
		}
		limiter.WaitForNextFrame()

		for _, event := range b.PollEvents() {
			switch event.Type {
			case backend.EventKey:
				d.HandleKey(event.Key, event.Pressed)
			case backend.EventSave:
				if err := d.Save(); err != nil {
					slog.Error("quick save failed", "error", err)
				}
			case backend.EventLoad:
				if err := d.Load(); err != nil {
					slog.Error("quick load failed", "error", err)
				}
			case backend.EventFastForward:
				d.fastForward = !d.fastForward
				speed := 1
				if d.fastForward {
					speed = timing.FastForwardMultiplier
				}
				limiter.SetSpeed(speed)
				slog.Info("fast forward toggled", "speed", speed)
			case backend.EventQuitAndSave:
				if err := d.Save(); err != nil {
					slog.Error("save on quit failed", "error", err)
				}
				return nil
			case backend.EventQuit:
				return nil
			}
		}
	}
}
