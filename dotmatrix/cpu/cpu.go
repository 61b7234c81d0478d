package cpu

import (
	"github.com/marzari/dotmatrix/dotmatrix/addr"
	"github.com/marzari/dotmatrix/dotmatrix/bit"
)

// Memory is the bus contract the CPU needs: byte reads and writes over
// the unified 16-bit address space.
type Memory interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// Flag is one of the 4 flags held in the high nibble of F.
type Flag uint8

const (
	zeroFlag      Flag = 0x80
	subFlag       Flag = 0x40
	halfCarryFlag Flag = 0x20
	carryFlag     Flag = 0x10
)

// interruptDispatchCycles is the T-cycle cost of vectoring an interrupt
// (5 machine cycles).
const interruptDispatchCycles = 20

// CPU holds the LR35902 state: the register file, the interrupt master
// enable and the HALT latch.
type CPU struct {
	a  uint8
	f  uint8
	b  uint8
	c  uint8
	d  uint8
	e  uint8
	h  uint8
	l  uint8
	sp uint16
	pc uint16

	ime       bool
	eiPending bool // EI takes effect after the following instruction
	halted    bool

	currentOpcode uint16
	cycles        uint64

	bus Memory
}

// New returns a CPU in the documented post-boot state, with the I/O
// registers written to their power-on values.
func New(bus Memory) *CPU {
	initializeIO(bus)

	cpu := &CPU{bus: bus}
	cpu.setAF(0x01B0)
	cpu.setBC(0x0013)
	cpu.setDE(0x00D8)
	cpu.setHL(0x014D)
	cpu.sp = 0xFFFE
	cpu.pc = 0x0100

	return cpu
}

// initializeIO writes the documented power-on values of the memory-mapped
// registers.
func initializeIO(bus Memory) {
	bus.Write(addr.TIMA, 0x00)
	bus.Write(addr.TMA, 0x00)
	bus.Write(addr.TAC, 0x00)
	bus.Write(addr.NR10, 0x80)
	bus.Write(addr.NR11, 0xBF)
	bus.Write(addr.NR12, 0xF3)
	bus.Write(addr.NR14, 0xBF)
	bus.Write(addr.NR21, 0x3F)
	bus.Write(addr.NR22, 0x00)
	bus.Write(addr.NR24, 0xBF)
	bus.Write(addr.NR30, 0x7F)
	bus.Write(addr.NR31, 0xFF)
	bus.Write(addr.NR32, 0x9F)
	bus.Write(addr.NR34, 0xBF)
	bus.Write(addr.NR41, 0xFF)
	bus.Write(addr.NR42, 0x00)
	bus.Write(addr.NR43, 0x00)
	bus.Write(addr.NR44, 0xBF)
	bus.Write(addr.NR50, 0x77)
	bus.Write(addr.NR51, 0xF3)
	bus.Write(addr.NR52, 0xF1)
	bus.Write(addr.LCDC, 0x91)
	bus.Write(addr.SCY, 0x00)
	bus.Write(addr.SCX, 0x00)
	bus.Write(addr.LYC, 0x00)
	bus.Write(addr.BGP, 0xFC)
	bus.Write(addr.OBP0, 0xFF)
	bus.Write(addr.OBP1, 0xFF)
	bus.Write(addr.WY, 0x00)
	bus.Write(addr.WX, 0x00)
	bus.Write(addr.IE, 0x00)
}

// Step services a pending interrupt or executes one instruction, and
// returns the T-cycle cost. A halted CPU with nothing pending idles for
// 4 cycles.
func (c *CPU) Step() int {
	if c.serviceInterrupt() {
		c.cycles += interruptDispatchCycles
		return interruptDispatchCycles
	}

	if c.halted {
		c.cycles += 4
		return 4
	}

	// EI enables IME only after the following instruction has run.
	enableIME := c.eiPending

	opcode := c.fetch()
	var cycles int
	if opcode == 0xCB {
		cb := c.fetch()
		c.currentOpcode = bit.Combine(0xCB, cb)
		cycles = opcodesCB[cb](c)
	} else {
		c.currentOpcode = uint16(opcode)
		cycles = opcodes[opcode](c)
	}
	c.cycles += uint64(cycles)

	if enableIME {
		c.ime = true
		c.eiPending = false
	}

	return cycles
}

// serviceInterrupt wakes a halted CPU when anything is pending and, if
// IME is set, vectors the highest-priority pending interrupt. It returns
// true when an interrupt was dispatched.
func (c *CPU) serviceInterrupt() bool {
	enabled := c.bus.Read(addr.IE)
	fired := c.bus.Read(addr.IF)
	pending := enabled & fired & 0x1F

	if pending == 0 {
		return false
	}

	// HALT ends as soon as something is pending, vectored or not.
	c.halted = false

	if !c.ime {
		return false
	}

	for i := uint8(0); i < 5; i++ {
		if !bit.IsSet(i, pending) {
			continue
		}
		c.ime = false
		c.bus.Write(addr.IF, bit.Reset(i, fired))
		c.pushStack(c.pc)
		c.pc = addr.Interrupt(i).Vector()
		return true
	}

	return false
}

// fetch reads the byte at PC and advances it.
func (c *CPU) fetch() uint8 {
	value := c.bus.Read(c.pc)
	c.pc++
	return value
}

// readImmediate reads the next instruction byte ('n' in mnemonics).
func (c *CPU) readImmediate() uint8 {
	return c.fetch()
}

// readSignedImmediate reads the next instruction byte as a signed offset.
func (c *CPU) readSignedImmediate() int8 {
	return int8(c.fetch())
}

// readImmediateWord reads the next two instruction bytes little-endian.
func (c *CPU) readImmediateWord() uint16 {
	low := c.fetch()
	high := c.fetch()
	return bit.Combine(high, low)
}

func (c *CPU) setFlag(flag Flag) {
	c.f |= uint8(flag)
}

func (c *CPU) resetFlag(flag Flag) {
	c.f &= ^uint8(flag)
}

func (c *CPU) isSetFlag(flag Flag) bool {
	return c.f&uint8(flag) != 0
}

func (c *CPU) setFlagToCondition(flag Flag, condition bool) {
	if condition {
		c.setFlag(flag)
	} else {
		c.resetFlag(flag)
	}
}

// flagToBit returns 1 if the flag is set, 0 otherwise.
func (c *CPU) flagToBit(flag Flag) uint8 {
	if c.isSetFlag(flag) {
		return 1
	}
	return 0
}

func (c *CPU) setBC(value uint16) {
	c.b = bit.High(value)
	c.c = bit.Low(value)
}

func (c *CPU) getBC() uint16 {
	return bit.Combine(c.b, c.c)
}

func (c *CPU) setDE(value uint16) {
	c.d = bit.High(value)
	c.e = bit.Low(value)
}

func (c *CPU) getDE() uint16 {
	return bit.Combine(c.d, c.e)
}

func (c *CPU) setHL(value uint16) {
	c.h = bit.High(value)
	c.l = bit.Low(value)
}

func (c *CPU) getHL() uint16 {
	return bit.Combine(c.h, c.l)
}

func (c *CPU) setAF(value uint16) {
	c.a = bit.High(value)
	// the low nibble of F does not exist in hardware
	c.f = bit.Low(value) & 0xF0
}

func (c *CPU) getAF() uint16 {
	return bit.Combine(c.a, c.f)
}

// Registers returns the byte registers in save-file order
// (A,B,C,D,E,F,H,L) followed by PC and SP.
func (c *CPU) Registers() ([8]uint8, uint16, uint16) {
	return [8]uint8{c.a, c.b, c.c, c.d, c.e, c.f, c.h, c.l}, c.pc, c.sp
}

// SetRegisters restores the byte registers from save-file order along
// with PC and SP. The F low nibble is discarded.
func (c *CPU) SetRegisters(regs [8]uint8, pc, sp uint16) {
	c.a = regs[0]
	c.b = regs[1]
	c.c = regs[2]
	c.d = regs[3]
	c.e = regs[4]
	c.f = regs[5] & 0xF0
	c.h = regs[6]
	c.l = regs[7]
	c.pc = pc
	c.sp = sp
}

// PC returns the program counter.
func (c *CPU) PC() uint16 { return c.pc }

// SP returns the stack pointer.
func (c *CPU) SP() uint16 { return c.sp }

// Cycles returns the total T-cycles executed.
func (c *CPU) Cycles() uint64 { return c.cycles }

// IsHalted reports whether the CPU is in the HALT wait state.
func (c *CPU) IsHalted() bool { return c.halted }

// IME reports the interrupt master enable flag.
func (c *CPU) IME() bool { return c.ime }
