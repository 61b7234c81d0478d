package memory

import (
	"fmt"
	"log/slog"

	"github.com/marzari/dotmatrix/dotmatrix/addr"
	"github.com/marzari/dotmatrix/dotmatrix/bit"
)

type memRegion uint8

const (
	regionROM memRegion = iota
	regionVRAM
	regionExtRAM
	regionWRAM
	regionEcho
	regionOAM
	regionIO
)

// MMU is the unified 16-bit address space dispatcher. It owns work RAM,
// VRAM, OAM, HRAM and the I/O registers, and routes cartridge and timer
// accesses to their components. All register write semantics (DIV reset,
// LY reset, OAM DMA) live behind Write.
type MMU struct {
	cart      *Cartridge
	mbc       MBC
	memory    []uint8
	regionMap [256]memRegion

	timer  Timer
	joypad *Joypad

	// OnLYWrite is invoked when the bus writes to LY, so the PPU can reset
	// its line counter along with the register.
	OnLYWrite func()
}

// New creates a memory unit with no cartridge inserted.
func New() *MMU {
	m := &MMU{
		memory: make([]uint8, 0x10000),
		cart:   NewCartridge(),
		joypad: NewJoypad(),
	}
	m.mbc = NewNoMBC(m.cart.data, 0)
	m.timer.OnOverflow = func() { m.RequestInterrupt(addr.TimerInterrupt) }
	m.joypad.OnPress = func() { m.RequestInterrupt(addr.JoypadInterrupt) }
	m.initRegionMap()
	return m
}

// NewWithCartridge creates a memory unit with the given cartridge mapped.
func NewWithCartridge(cart *Cartridge) *MMU {
	m := New()
	m.cart = cart

	switch cart.mbcType {
	case NoMBCType:
		m.mbc = NewNoMBC(cart.data, cart.ramBankCount)
	case MBC1Type:
		m.mbc = NewMBC1(cart.data, cart.hasBattery, cart.ramBankCount)
	case MBC2Type:
		m.mbc = NewMBC2(cart.data)
	case MBC3Type:
		m.mbc = NewMBC3(cart.data, cart.ramBankCount)
	case MBC5Type:
		m.mbc = NewMBC5(cart.data, cart.ramBankCount)
	default:
		panic(fmt.Sprintf("unsupported MBC type: %d", cart.mbcType))
	}

	return m
}

func (m *MMU) initRegionMap() {
	for i := 0x00; i <= 0x7F; i++ {
		m.regionMap[i] = regionROM
	}
	for i := 0x80; i <= 0x9F; i++ {
		m.regionMap[i] = regionVRAM
	}
	for i := 0xA0; i <= 0xBF; i++ {
		m.regionMap[i] = regionExtRAM
	}
	for i := 0xC0; i <= 0xDF; i++ {
		m.regionMap[i] = regionWRAM
	}
	for i := 0xE0; i <= 0xFD; i++ {
		m.regionMap[i] = regionEcho
	}
	m.regionMap[0xFE] = regionOAM
	m.regionMap[0xFF] = regionIO
}

// Cartridge returns the inserted cartridge.
func (m *MMU) Cartridge() *Cartridge {
	return m.cart
}

// Joypad returns the joypad latch wired to P1.
func (m *MMU) Joypad() *Joypad {
	return m.joypad
}

// TickTimer advances the timer by the given T-cycles.
func (m *MMU) TickTimer(cycles int) {
	m.timer.Tick(cycles)
}

// RequestInterrupt sets the IF bit for the given interrupt.
func (m *MMU) RequestInterrupt(interrupt addr.Interrupt) {
	m.memory[addr.IF] = bit.Set(uint8(interrupt), m.memory[addr.IF]) | 0xE0
}

func (m *MMU) Read(address uint16) uint8 {
	switch m.regionMap[address>>8] {
	case regionROM, regionExtRAM:
		return m.mbc.Read(address)
	case regionVRAM, regionWRAM:
		return m.memory[address]
	case regionEcho:
		return m.memory[address-0x2000]
	case regionOAM:
		if address <= addr.OAMEnd {
			return m.memory[address]
		}
		// unused region 0xFEA0-0xFEFF
		return 0xFF
	case regionIO:
		switch address {
		case addr.P1:
			return m.joypad.Read()
		case addr.DIV, addr.TIMA, addr.TMA, addr.TAC:
			return m.timer.Read(address)
		case addr.IF:
			// the upper 3 bits are unwired and read as 1
			return m.memory[address] | 0xE0
		}
		return m.memory[address]
	default:
		return 0xFF
	}
}

func (m *MMU) Write(address uint16, value uint8) {
	switch m.regionMap[address>>8] {
	case regionROM, regionExtRAM:
		m.mbc.Write(address, value)
	case regionVRAM, regionWRAM:
		m.memory[address] = value
	case regionEcho:
		m.memory[address-0x2000] = value
	case regionOAM:
		if address <= addr.OAMEnd {
			m.memory[address] = value
		}
		// writes to 0xFEA0-0xFEFF are ignored
	case regionIO:
		switch address {
		case addr.P1:
			m.joypad.Write(value)
		case addr.DIV, addr.TIMA, addr.TMA, addr.TAC:
			m.timer.Write(address, value)
		case addr.IF:
			m.memory[address] = value | 0xE0
		case addr.LY:
			// bus writes reset the scanline counter
			m.memory[address] = 0
			if m.OnLYWrite != nil {
				m.OnLYWrite()
			}
		case addr.DMA:
			m.memory[address] = value
			m.runDMA(value)
		default:
			m.memory[address] = value
		}
	}
}

// Read16 reads a little-endian word.
func (m *MMU) Read16(address uint16) uint16 {
	return bit.Combine(m.Read(address+1), m.Read(address))
}

// Write16 writes a little-endian word.
func (m *MMU) Write16(address uint16, value uint16) {
	m.Write(address, bit.Low(value))
	m.Write(address+1, bit.High(value))
}

// WriteDirect stores a byte into the backing array without any register
// side effects. The PPU uses this to mirror LY and STAT.
func (m *MMU) WriteDirect(address uint16, value uint8) {
	m.memory[address] = value
}

// runDMA copies 0xA0 bytes from value*0x100 into OAM as one atomic burst.
func (m *MMU) runDMA(value uint8) {
	source := uint16(value) << 8
	for i := uint16(0); i < 0xA0; i++ {
		m.memory[addr.OAMStart+i] = m.Read(source + i)
	}
}

// DumpImage captures the full 64 KiB address space as the bus sees it.
func (m *MMU) DumpImage() []uint8 {
	image := make([]uint8, 0x10000)
	for i := 0; i <= 0xFFFF; i++ {
		image[i] = m.Read(uint16(i))
	}
	return image
}

// LoadImage restores a 64 KiB image captured by DumpImage. The ROM region
// is left to the cartridge (it is immutable), the external RAM window is
// written through the mapper, and everything else lands in the backing
// array without triggering register write semantics.
func (m *MMU) LoadImage(image []uint8) error {
	if len(image) != 0x10000 {
		return fmt.Errorf("memory image must be 0x10000 bytes, got %d", len(image))
	}

	for i := 0xA000; i <= 0xBFFF; i++ {
		m.mbc.Write(uint16(i), image[i])
	}
	copy(m.memory[0x8000:0xA000], image[0x8000:0xA000])
	copy(m.memory[0xC000:], image[0xC000:])

	m.timer.load(image[addr.DIV], image[addr.TIMA], image[addr.TMA], image[addr.TAC])
	m.joypad.Write(image[addr.P1])

	if m.Read(0x0000) != image[0] {
		slog.Warn("snapshot ROM bank 0 differs from the loaded cartridge")
	}

	return nil
}
